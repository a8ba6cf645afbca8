package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"wrapbeep.click/internal/audio"
	"wrapbeep.click/internal/config"
	"wrapbeep.click/internal/fs"
	"wrapbeep.click/internal/tracking"
	"wrapbeep.click/internal/widget"
)

const Version = "0.4.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	fsFactory        fs.Factory
	terminalDetector TerminalDetector
	logger           *slog.Logger
	logFile          io.Closer
	trackingDB       *sql.DB // nil when tracking is disabled or unavailable
}

// NewCLI creates a new CLI instance
func NewCLI() *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "wrapbeep",
		Short: "Beep when an agent finishes wrap-up",
		Long: `wrapbeep plays a short audio clip whenever the desktop reports that an
agent has entered wrap-up. Audio stays off until you enable it.

Events are read from the desktop websocket when a source URL is configured,
otherwise as JSON lines on stdin:

  {"event":"eAgentWrapup","data":{"interactionId":"..."}}`,
		RunE:         runWidgetE,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newPlayCommand())
	rootCmd.AddCommand(newStatsCommand())

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("volume", "", "Set volume (0.0 to 1.0)")
	rootCmd.PersistentFlags().String("backend", "", "Audio backend (auto, malgo, oto, none)")
	rootCmd.PersistentFlags().String("audio-path", "", "URL or file path of the clip to play")
	rootCmd.PersistentFlags().String("event", "", "Event name that triggers playback")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	addRunFlags(rootCmd)

	return &CLI{
		rootCmd:   rootCmd,
		fsFactory: fs.NewDefaultFactory(),
		logger:    slog.Default(),
	}
}

type cliContextKey struct{}

// contextWithCLI stores CLI instance in context for command handlers
func contextWithCLI(ctx context.Context, cli *CLI) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cli)
}

// cliFromContext extracts CLI instance from context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

func versionString() string {
	return fmt.Sprintf("wrapbeep version %s\n", Version)
}

// handleVersionFlag reports whether the version was printed and processing
// should stop
func handleVersionFlag(cmd *cobra.Command) bool {
	version, _ := cmd.Flags().GetBool("version")
	if version {
		cmd.Print(versionString())
		return true
	}
	return false
}

// loadAndValidateConfig loads the config file, then applies environment and
// flag overrides, then validates the result
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	volumeStr, _ := cmd.Flags().GetString("volume")
	backend, _ := cmd.Flags().GetString("backend")
	audioPath, _ := cmd.Flags().GetString("audio-path")
	eventName, _ := cmd.Flags().GetString("event")
	sourceURL, _ := cmd.Flags().GetString("source-url")

	var volume float64
	if volumeStr != "" {
		vol, err := strconv.ParseFloat(volumeStr, 64)
		if err != nil {
			slog.Error("invalid volume value", "value", volumeStr, "error", err)
			return nil, fmt.Errorf("invalid volume value '%s': %w", volumeStr, err)
		}
		volume = vol
	}

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = cli.configManager.LoadFromFile(configFile)
	} else {
		cfg, err = cli.configManager.LoadConfig()
	}
	if err != nil {
		slog.Error("config load failed", "file", configFile, "error", err)
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg = cli.configManager.ApplyEnvironmentOverrides(cfg)

	if volumeStr != "" {
		cfg.Volume = volume
		slog.Debug("volume override applied", "value", volume)
	}
	if backend != "" {
		cfg.AudioBackend = backend
		slog.Debug("audio backend override applied", "value", backend)
	}
	if audioPath != "" {
		cfg.AudioPath = audioPath
		slog.Debug("audio path override applied", "value", audioPath)
	}
	if eventName != "" {
		cfg.EventName = eventName
		slog.Debug("event name override applied", "value", eventName)
	}
	if sourceURL != "" {
		cfg.Source.URL = sourceURL
		slog.Debug("source url override applied", "value", sourceURL)
	}

	if err := cli.configManager.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	// Version needs no config, logging or audio.
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		fmt.Fprint(stdout, versionString())
		return 0
	}

	if c.configManager == nil {
		c.configManager = config.NewConfigManagerWithFilesystem(c.fsFactory.Production())
	}
	defer c.close()

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	c.rootCmd.SetContext(contextWithCLI(context.Background(), c))

	if err := c.rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}

func (c *CLI) close() {
	if c.trackingDB != nil {
		if err := c.trackingDB.Close(); err != nil {
			slog.Error("error closing tracking database", "error", err)
		}
		c.trackingDB = nil
	}
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
		}
		c.logFile = nil
	}
}

// setupLogging installs the default logger: stderr at the configured level,
// plus a rotating log file when file logging is enabled.
func (c *CLI) setupLogging(cfg *config.Config, stderrWriter io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderrWriter, &slog.HandlerOptions{Level: level}),
	}

	fileLogging := cfg.FileLogging
	if fileLogging != nil && fileLogging.Enabled {
		logFilePath := c.configManager.ResolveLogFilePath(fileLogging.Filename)
		logDir := filepath.Dir(logFilePath)

		if err := os.MkdirAll(logDir, 0755); err != nil {
			slog.Error("failed to create log directory", "path", logDir, "error", err)
		} else {
			fileLevel := level
			if fileLogging.Level != "" {
				if parsed, err := config.ParseLogLevel(fileLogging.Level); err == nil {
					fileLevel = parsed
				}
			}
			fileWriter := &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    fileLogging.MaxSizeMB,
				MaxBackups: fileLogging.MaxBackups,
				MaxAge:     fileLogging.MaxAgeDays,
				Compress:   fileLogging.Compress,
			}
			c.logFile = fileWriter
			handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: fileLevel}))
		}
	}

	c.logger = slog.New(NewMultiLevelHandler(handlers...))
	slog.SetDefault(c.logger)

	c.logger.Debug("logging setup completed",
		"level", level.String(),
		"handlers", len(handlers),
		"file_enabled", c.logFile != nil)
}

// initializeTracking opens the tracking database when tracking is enabled.
// Failures are logged and playback continues untracked.
func (c *CLI) initializeTracking(cfg *config.Config) {
	if c.trackingDB != nil {
		return
	}
	if cfg.Tracking == nil || !cfg.Tracking.Enabled {
		slog.Debug("playback tracking disabled")
		return
	}

	dbPath := c.configManager.ResolveDatabasePath(cfg.Tracking.DatabasePath)
	db, err := tracking.NewDatabase(dbPath)
	if err != nil {
		slog.Error("failed to initialize tracking database, continuing without tracking",
			"path", dbPath, "error", err)
		return
	}

	c.trackingDB = db
	slog.Debug("tracking database initialized", "path", dbPath)
}

// newRecorder logs every record and stores it when tracking is available
func (c *CLI) newRecorder() *tracking.Recorder {
	var store tracking.PlaybackHook
	if c.trackingDB != nil {
		store = tracking.NewDBHook(c.trackingDB).GetHook()
	} else {
		store = tracking.NewNopHook().GetHook()
	}
	return tracking.NewRecorder(
		tracking.WithHook(tracking.NewSlogHook(c.logger).GetHook()),
		tracking.WithHook(store),
	)
}

// newWidget builds a widget from cfg on the configured audio backend
func (c *CLI) newWidget(cfg *config.Config) (*widget.Widget, error) {
	deviceConfig := audio.DefaultDeviceConfig()
	deviceConfig.Volume = cfg.Volume

	factory := audio.NewBackendFactory(deviceConfig, c.logger)
	newDevice, err := factory.CreateBackend(cfg.AudioBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio backend '%s': %w", cfg.AudioBackend, err)
	}

	return widget.New(widget.Options{
		AudioPath:       cfg.AudioPath,
		EventName:       cfg.EventName,
		ConfirmOnUnlock: cfg.ConfirmOnUnlock,
		Fetcher:         audio.NewSchemeFetcher(c.fsFactory.Sounds()),
		NewDevice:       newDevice,
		Recorder:        c.newRecorder(),
		Logger:          c.logger,
	})
}

// prepare runs the shared startup for commands that load config
func prepare(cmd *cobra.Command) (*CLI, *config.Config, error) {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return nil, nil, fmt.Errorf("CLI instance not found in context")
	}
	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return nil, nil, err
	}
	cli.setupLogging(cfg, cmd.ErrOrStderr())
	cli.initializeTracking(cfg)
	return cli, cfg, nil
}

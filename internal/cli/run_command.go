package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wrapbeep.click/internal/config"
	"wrapbeep.click/internal/desktop"
	"wrapbeep.click/internal/trigger"
	"wrapbeep.click/internal/widget"
)

// eventSource is a trigger.EventSource that dispatches until its context ends.
type eventSource interface {
	trigger.EventSource
	Run(ctx context.Context) error
}

func newRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Listen for events and beep (the default command)",
		Long: `Listen for events and beep on every wrap-up once audio is enabled.

With a source URL, stdin takes single-key commands:
  space or t   toggle audio
  s            suspend the audio device
  ?            show status
  q            quit

Without one, stdin carries the events as JSON lines and --enabled turns
audio on at start.`,
		Args: cobra.NoArgs,
		RunE: runWidgetE,
	}
	addRunFlags(runCmd)
	return runCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("enabled", false, "Enable audio immediately")
	cmd.Flags().String("source-url", "", "Desktop websocket URL (ws:// or wss://)")
}

// runWidgetE is the default command: connect a widget to the event source and
// play on every trigger until interrupted or the source ends.
func runWidgetE(cmd *cobra.Command, args []string) error {
	if handleVersionFlag(cmd) {
		return nil
	}

	cli, cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	if enabled, _ := cmd.Flags().GetBool("enabled"); enabled {
		cfg.StartEnabled = true
	}

	w, err := cli.newWidget(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.runWidget(ctx, cmd, cfg, w)
}

func (c *CLI) newEventSource(cmd *cobra.Command, cfg *config.Config) (eventSource, bool) {
	if cfg.Source == nil || cfg.Source.URL == "" {
		return desktop.NewLineSource(cmd.InOrStdin(), c.logger), false
	}

	var subscribe []string
	if cfg.Source.Handshake {
		subscribe = []string{cfg.EventName}
	}
	return desktop.NewClient(desktop.ClientConfig{
		URL:            cfg.Source.URL,
		Subscribe:      subscribe,
		ReconnectDelay: time.Duration(cfg.Source.ReconnectSeconds) * time.Second,
	}, c.logger), true
}

// runWidget owns w for its lifetime. Stdin carries events when no source URL
// is configured and keyboard commands otherwise.
func (c *CLI) runWidget(ctx context.Context, cmd *cobra.Command, cfg *config.Config, w *widget.Widget) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, keyboard := c.newEventSource(cmd, cfg)
	if err := w.Connect(source); err != nil {
		return fmt.Errorf("failed to connect to event source: %w", err)
	}
	defer func() {
		if err := w.Disconnect(); err != nil {
			slog.Warn("widget disconnect reported errors", "error", err)
		}
	}()

	c.logger.Info("waiting for events",
		"event_name", cfg.EventName,
		"source", sourceName(cfg),
		"instance_id", w.ID())

	if cfg.StartEnabled {
		w.Toggle(ctx, true)
	}

	done := make(chan error, 1)
	go func() {
		done <- source.Run(ctx)
	}()

	if keyboard {
		// runKeys may still be blocked in Read when this returns
		restore := c.enterRawMode(cmd.InOrStdin())
		defer restore()
		go func() {
			if c.runKeys(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), w) {
				cancel()
			}
		}()
	}

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("event source stopped: %w", err)
		}
	case <-ctx.Done():
	}
	c.logger.Debug("shutting down")
	return nil
}

func sourceName(cfg *config.Config) string {
	if cfg.Source != nil && cfg.Source.URL != "" {
		return cfg.Source.URL
	}
	return "stdin"
}

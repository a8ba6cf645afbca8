package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newPlayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play [path]",
		Short: "Enable audio and play the clip once",
		Long: `Enable audio and play the clip once, then wait for it to finish.

Use this to check the clip, the audio backend and the volume before running
the listener. The path defaults to audio_path from the config.

Examples:
  wrapbeep play
  wrapbeep play https://cdn.example.com/sounds/wrapup.mp3
  wrapbeep play ./beep.wav --volume 0.3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlayE,
	}
}

func runPlayE(cmd *cobra.Command, args []string) error {
	cli, cfg, err := prepare(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.AudioPath = args[0]
	}
	if cfg.AudioPath == "" {
		return fmt.Errorf("no audio path given and none configured")
	}
	cfg.ConfirmOnUnlock = false

	w, err := cli.newWidget(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Disconnect() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Toggle(ctx, true)
	if err := w.LastError(); err != nil {
		return fmt.Errorf("failed to enable audio: %w", err)
	}

	playback := w.Playback()
	if !playback.PlayNow() {
		return fmt.Errorf("playback did not start")
	}

	clip := playback.Cache().Cached()
	cmd.Printf("playing %s (%s, %d Hz, %d ch)\n",
		cfg.AudioPath, clip.Duration().Round(time.Millisecond), clip.SampleRate, clip.Channels)

	timer := time.NewTimer(clip.Duration() + 100*time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}

// ABOUTME: Entry point for the Resonate lyrics player
// ABOUTME: Cobra CLI with the play (default) and library commands
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/app"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/config"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/logging"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:          version.Product,
		Short:        "Terminal music player with time-synced lyrics",
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), &cfg)
		},
	}
	config.BindPlayerFlags(root, &cfg)

	play := &cobra.Command{
		Use:   "play",
		Short: "Play a music directory and show its lyrics (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), &cfg)
		},
	}
	config.BindPlayerFlags(play, &cfg)

	root.AddCommand(play, newLibraryCmd(&cfg))
	return root
}

func runPlay(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(true); err != nil {
		return err
	}

	// TUI mode owns the terminal, so logs go only to the file
	logger, closer, err := logging.Setup(logging.Options{
		Path:  cfg.LogFile,
		Level: cfg.LogLevel,
		Echo:  cfg.NoTUI,
		JSON:  cfg.LogJSON,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Infof("Starting %s", version.String())
	logger.Infof("Logging to: %s", cfg.LogFile)

	if err := app.New(*cfg, logger).Run(ctx); err != nil {
		logger.WithError(err).Error("Player error")
		return fmt.Errorf("player error: %w", err)
	}
	return nil
}

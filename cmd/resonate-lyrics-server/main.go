// ABOUTME: Entry point for the Resonate lyrics server
// ABOUTME: Serves the configured lyrics store over HTTP with mDNS advertisement
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
	"github.com/Resonate-Protocol/resonate-lyrics/internal/server"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/version"
	"github.com/sirupsen/logrus"
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
	cfg.LogFile = "resonate-lyrics-server.log"
	showTUI := false

	cmd := &cobra.Command{
		Use:          "resonate-lyrics-server",
		Short:        "Serve lyrics to Resonate players over HTTP",
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, showTUI)
		},
	}
	config.BindServerFlags(cmd, &cfg)
	cmd.Flags().BoolVar(&showTUI, "tui", false, "Show a live request dashboard")

	return cmd
}

func run(ctx context.Context, cfg config.Config, showTUI bool) error {
	// a server never proxies to another lyrics server
	cfg.ServerURL = ""
	cfg.Discover = false

	if err := cfg.Validate(false); err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{
		Path:  cfg.LogFile,
		Level: cfg.LogLevel,
		Echo:  !showTUI,
		JSON:  cfg.LogJSON,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Infof("Starting %s server: %s on %s", version.String(), cfg.Name, cfg.Listen)
	logger.Infof("Logging to: %s", cfg.LogFile)

	stores, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to open lyrics store")
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close lyrics store")
		}
	}()
	logger.Infof("Serving lyrics from %s", stores.Source)

	srv := server.New(server.Config{
		Listen:     cfg.Listen,
		Name:       cfg.Name,
		EnableMDNS: cfg.MDNS,
		Logger:     logger,
	}, stores.Store)

	if !showTUI {
		logger.Info("Press Ctrl-C to stop")
		if err := srv.Run(ctx); err != nil {
			logger.WithError(err).Error("Server error")
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	return runWithTUI(ctx, srv, stores.Source, cfg.Listen, logger)
}

// runWithTUI serves in the background while the dashboard owns the terminal
func runWithTUI(ctx context.Context, srv *server.Server, source, listen string, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
		cancel()
	}()

	tui := server.NewStatusTUI()
	go func() {
		select {
		case <-ctx.Done():
		case <-tui.QuitChan():
			cancel()
		}
		tui.Stop()
	}()

	info := server.StatusInfo{Name: srv.Name(), Listen: listen, Source: source}
	if err := tui.Start(info, srv.Stats()); err != nil {
		logger.WithError(err).Error("TUI error")
	}

	cancel()
	if err := <-errChan; err != nil {
		logger.WithError(err).Error("Server error")
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

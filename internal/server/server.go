// ABOUTME: Lyrics HTTP server
// ABOUTME: Serves any lyrics store over fiber with optional mDNS advertisement
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/discovery"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Config holds server configuration
type Config struct {
	Listen     string // host:port
	Name       string
	EnableMDNS bool
	Logger     logrus.FieldLogger
}

// Server exposes a lyrics store over HTTP
type Server struct {
	config   Config
	store    lyrics.Store
	app      *fiber.App
	validate *validator.Validate
	stats    *Stats
	log      logrus.FieldLogger
}

// New creates a server over store
func New(config Config, store lyrics.Store) *Server {
	if config.Listen == "" {
		config.Listen = ":8927"
	}
	if config.Name == "" {
		config.Name = "resonate-lyrics"
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	s := &Server{
		config:   config,
		store:    store,
		validate: validator.New(),
		stats:    newStats(),
		log:      config.Logger.WithField("component", "server"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               config.Name,
		DisableStartupMessage: true,
		BodyLimit:             maxLyricsBytes * 2,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(RequestLogger(s.log), s.stats.middleware)
	s.routes()

	return s
}

// App returns the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Stats returns the request statistics
func (s *Server) Stats() *Stats {
	return s.stats
}

// Name returns the advertised server name
func (s *Server) Name() string {
	return s.config.Name
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/lyrics/:id", s.handleGetLyrics)
	s.app.Post("/lyrics/update/:id", s.handleUpdateLyrics)
}

// Run listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	s.log.WithField("addr", ln.Addr().String()).Info("Lyrics server listening")

	if s.config.EnableMDNS {
		port := ln.Addr().(*net.TCPAddr).Port
		mdnsManager := discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
			Logger:      s.log,
		})
		if err := mdnsManager.Advertise(); err != nil {
			s.log.WithError(err).Warn("Failed to start mDNS advertisement")
		} else {
			defer mdnsManager.Stop()
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.app.Listener(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Lyrics server shutting down")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	}

	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		s.log.WithError(err).Warn("HTTP server shutdown error")
	}
	s.log.Info("Lyrics server stopped cleanly")
	return nil
}

// handleError renders errors that escape handlers in the JSON envelope
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return respondWithError(c, code, err.Error())
}

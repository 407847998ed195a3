// ABOUTME: Lyrics store selection from configuration
// ABOUTME: Server, discovered server, libsql or files, optionally behind redis
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/config"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/discovery"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/store"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/sirupsen/logrus"
)

const (
	discoveryTimeout = 10 * time.Second
	httpStoreTimeout = 10 * time.Second
)

// Stores is the opened lyrics store and what it holds open
type Stores struct {
	Store lyrics.Store

	// Files is set when lyrics live in a local directory and can be watched
	Files *store.FileStore

	// Source describes the backing store for logs and the library listing
	Source string

	// cache is set when Store is wrapped in redis
	cache *store.Cached
	log   logrus.FieldLogger

	closers []func() error
}

// Close releases database and cache connections
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore builds the store selected by cfg: a lyrics server URL wins, then
// a discovered server, then a libsql database, then the lyrics directory.
// A redis URL wraps whichever was chosen in a read-through cache.
func OpenStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Stores, error) {
	s := &Stores{log: logger}

	serverURL := cfg.ServerURL
	if serverURL == "" && cfg.Discover {
		findCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()

		logger.Info("Starting lyrics server discovery...")
		server, err := discovery.FindServer(findCtx, logger)
		if err != nil {
			return nil, err
		}
		serverURL = server.URL()
		logger.WithField("url", serverURL).Info("Discovered lyrics server")
	}

	switch {
	case serverURL != "":
		s.Store = store.NewHTTPStore(serverURL, httpStoreTimeout, logger)
		s.Source = serverURL

	case cfg.DatabaseURL != "":
		db, err := store.OpenSQL(ctx, cfg.DatabaseURL, cfg.DatabaseToken)
		if err != nil {
			return nil, err
		}
		sqlStore := store.NewSQLStore(db, logger)
		if err := sqlStore.Migrate(ctx); err != nil {
			sqlStore.Close()
			return nil, err
		}
		s.Store = sqlStore
		s.Source = "database"
		s.closers = append(s.closers, sqlStore.Close)

	default:
		files, err := store.NewFileStore(cfg.LyricsDir, logger)
		if err != nil {
			return nil, err
		}
		s.Store = files
		s.Files = files
		s.Source = files.Dir()
	}

	if cfg.RedisURL != "" {
		client, err := store.OpenRedis(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open lyrics cache: %w", err)
		}
		s.cache = store.NewCached(s.Store, client, cfg.CacheTTL, logger)
		s.Store = s.cache
		s.Source += " (cached)"
		s.closers = append(s.closers, client.Close)
	}

	logger.WithField("source", s.Source).Info("Lyrics store ready")
	return s, nil
}

// WatchFiles reports external edits in the lyrics directory until ctx is
// done. A cached entry for the song is dropped before onChange runs so the
// reload it triggers reads the new file. Returns nil without a file store.
func (s *Stores) WatchFiles(ctx context.Context, onChange func(songID string)) error {
	if s.Files == nil {
		return nil
	}
	return s.Files.Watch(ctx, func(songID string) {
		s.fileChanged(ctx, songID)
		onChange(songID)
	})
}

func (s *Stores) fileChanged(ctx context.Context, songID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, songID); err != nil {
		s.log.WithError(err).WithField("song_id", songID).Warn("Failed to drop cached lyrics after file change")
	}
}

// ABOUTME: SQL lyrics store on libsql (Turso or local sqld)
// ABOUTME: One row per song with upsert on save
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/sirupsen/logrus"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const schema = `CREATE TABLE IF NOT EXISTS lyrics (
	song_id    TEXT PRIMARY KEY,
	raw_text   TEXT NOT NULL,
	is_synced  INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
)`

// OpenSQL opens a libsql database. token is appended as authToken when set.
func OpenSQL(ctx context.Context, dbURL, token string) (*sql.DB, error) {
	dsn := dbURL
	if token != "" {
		u, err := url.Parse(dbURL)
		if err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// SQLStore stores lyrics in a lyrics table
type SQLStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB, logger logrus.FieldLogger) *SQLStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SQLStore{
		db:  db,
		log: logger.WithField("store", "sql"),
	}
}

// Migrate creates the lyrics table if it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create lyrics table: %w", err)
	}
	return nil
}

// Fetch loads one song's lyrics
func (s *SQLStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	doc := lyrics.Document{SongID: songID}

	row := s.db.QueryRowContext(ctx, `SELECT raw_text, is_synced FROM lyrics WHERE song_id = ?`, songID)
	if err := row.Scan(&doc.RawText, &doc.Synced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lyrics.Document{}, lyrics.ErrNotFound
		}
		return lyrics.Document{}, fmt.Errorf("failed to query lyrics: %w", err)
	}

	return doc, nil
}

// Save inserts or replaces one song's lyrics
func (s *SQLStore) Save(ctx context.Context, songID, text string, synced bool) error {
	query := `INSERT INTO lyrics (song_id, raw_text, is_synced, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET
			raw_text = excluded.raw_text,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, songID, text, synced, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save lyrics: %w", err)
	}

	s.log.WithFields(logrus.Fields{"song_id": songID, "synced": synced}).Debug("Lyrics row upserted")
	return nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

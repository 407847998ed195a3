// ABOUTME: HTTP client store for a remote lyrics server
// ABOUTME: GET /lyrics/{id} and POST /lyrics/update/{id} with JSON bodies
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a per-request id for log correlation
const RequestIDHeader = "X-Request-ID"

// LyricsResponse is the body of GET /lyrics/{id}
type LyricsResponse struct {
	Status   string `json:"status"`
	SongID   string `json:"song_id"`
	Lyrics   string `json:"lyrics"`
	IsSynced bool   `json:"is_synced"`
	Message  string `json:"message,omitempty"`
}

// UpdateRequest is the body of POST /lyrics/update/{id}
type UpdateRequest struct {
	Lyrics   string `json:"lyrics"`
	IsSynced bool   `json:"is_synced"`
}

// HTTPStore talks to a lyrics server
type HTTPStore struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewHTTPStore creates a client for the server at baseURL
func NewHTTPStore(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.WithField("store", "http"),
	}
}

// Fetch retrieves a song's lyrics
func (s *HTTPStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/lyrics/"+url.PathEscape(songID), nil)
	if err != nil {
		return lyrics.Document{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return lyrics.Document{}, fmt.Errorf("failed to fetch lyrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return lyrics.Document{}, lyrics.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return lyrics.Document{}, fmt.Errorf("lyrics fetch failed: HTTP %d%s", resp.StatusCode, errorMessage(resp.Body))
	}

	var body LyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return lyrics.Document{}, fmt.Errorf("failed to decode lyrics: %w", err)
	}

	return lyrics.Document{
		SongID:  songID,
		RawText: body.Lyrics,
		Synced:  body.IsSynced,
	}, nil
}

// Save uploads a song's lyrics
func (s *HTTPStore) Save(ctx context.Context, songID, text string, synced bool) error {
	payload, err := json.Marshal(UpdateRequest{Lyrics: text, IsSynced: synced})
	if err != nil {
		return fmt.Errorf("failed to encode lyrics: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/lyrics/update/"+url.PathEscape(songID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save lyrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lyrics save failed: HTTP %d%s", resp.StatusCode, errorMessage(resp.Body))
	}

	return nil
}

func (s *HTTPStore) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	s.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}).Debug("Lyrics request")

	return req, nil
}

// errorMessage extracts the server's error message, if any
func errorMessage(r io.Reader) string {
	var body LyricsResponse
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil || body.Message == "" {
		return ""
	}
	return ": " + body.Message
}

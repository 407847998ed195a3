// ABOUTME: Tests for the redis read-through cache
// ABOUTME: Runs against an in-process miniredis and an unreachable address
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type countingStore struct {
	docs    map[string]lyrics.Document
	fetches int
}

func (s *countingStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	s.fetches++
	doc, ok := s.docs[songID]
	if !ok {
		return lyrics.Document{}, lyrics.ErrNotFound
	}
	return doc, nil
}

func (s *countingStore) Save(ctx context.Context, songID, text string, synced bool) error {
	s.docs[songID] = lyrics.Document{SongID: songID, RawText: text, Synced: synced}
	return nil
}

func TestCachedFallsThroughWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	next := &countingStore{docs: map[string]lyrics.Document{
		"a": {SongID: "a", RawText: "words"},
	}}
	c := NewCached(next, client, time.Minute, nil)
	ctx := context.Background()

	doc, err := c.Fetch(ctx, "a")
	if err != nil {
		t.Fatalf("expected fallthrough, got %v", err)
	}
	if doc.RawText != "words" {
		t.Errorf("expected words, got %q", doc.RawText)
	}

	if _, err := c.Fetch(ctx, "missing"); !errors.Is(err, lyrics.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := c.Save(ctx, "a", "new", false); err != nil {
		t.Errorf("expected save to succeed despite cache failure, got %v", err)
	}
	if next.docs["a"].RawText != "new" {
		t.Error("expected save to reach the wrapped store")
	}
}

// newTestRedis starts an in-process redis and returns a client for it
func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedHitAndInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	songID := uuid.NewString()

	next := &countingStore{docs: map[string]lyrics.Document{
		songID: {SongID: songID, RawText: "[00:01.00]x", Synced: true},
	}}
	c := NewCached(next, client, time.Minute, nil)

	for i := 0; i < 3; i++ {
		doc, err := c.Fetch(ctx, songID)
		if err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
		if !doc.Synced {
			t.Errorf("fetch %d: expected synced document", i)
		}
	}
	if next.fetches != 1 {
		t.Errorf("expected 1 backing fetch, got %d", next.fetches)
	}

	c.Save(ctx, songID, "plain", false)
	doc, _ := c.Fetch(ctx, songID)
	if doc.RawText != "plain" || next.fetches != 2 {
		t.Errorf("expected refetch after save, got %+v (fetches=%d)", doc, next.fetches)
	}
}

func TestCachedTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	next := &countingStore{docs: map[string]lyrics.Document{"a": {RawText: "words"}}}
	c := NewCached(next, client, time.Minute, nil)

	if _, err := c.Fetch(context.Background(), "a"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if ttl := mr.TTL(cacheKey("a")); ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %v", ttl)
	}
}

func TestCachedInvalidateAfterExternalEdit(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	files, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	c := NewCached(files, client, time.Hour, nil)

	if err := c.Save(ctx, "song1", "old text", false); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if doc, _ := c.Fetch(ctx, "song1"); doc.RawText != "old text" {
		t.Fatalf("expected old text, got %q", doc.RawText)
	}

	// edited outside the cache, e.g. in a text editor
	if err := os.WriteFile(filepath.Join(files.Dir(), "song1.txt"), []byte("new text"), 0644); err != nil {
		t.Fatal(err)
	}
	if doc, _ := c.Fetch(ctx, "song1"); doc.RawText != "old text" {
		t.Fatalf("expected cached old text before invalidation, got %q", doc.RawText)
	}

	if err := c.Invalidate(ctx, "song1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	doc, err := c.Fetch(ctx, "song1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if doc.RawText != "new text" {
		t.Errorf("expected new text after invalidation, got %q", doc.RawText)
	}
}

func TestCachedInvalidateRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewCached(&countingStore{docs: map[string]lyrics.Document{}}, client, time.Minute, nil)
	if err := c.Invalidate(context.Background(), "a"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

// ABOUTME: Request statistics for the lyrics server
// ABOUTME: Counters and a short history of recent requests for the status TUI
package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const recentRequests = 10

// RequestRecord describes one handled request
type RequestRecord struct {
	Time      time.Time
	Method    string
	Path      string
	Status    int
	Latency   time.Duration
	RequestID string
}

// StatsSnapshot is a point-in-time copy of the server statistics
type StatsSnapshot struct {
	Uptime time.Duration
	Total  int64
	Failed int64
	Saves  int64
	Recent []RequestRecord // newest first
}

// Stats tracks requests handled by the server
type Stats struct {
	mu      sync.Mutex
	started time.Time
	total   int64
	failed  int64
	saves   int64
	recent  []RequestRecord
}

func newStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) record(r RequestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if r.Status >= 400 {
		s.failed++
	}
	if r.Method == fiber.MethodPost && r.Status < 300 {
		s.saves++
	}

	s.recent = append([]RequestRecord{r}, s.recent...)
	if len(s.recent) > recentRequests {
		s.recent = s.recent[:recentRequests]
	}
}

// Snapshot copies the current statistics
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		Uptime: time.Since(s.started),
		Total:  s.total,
		Failed: s.failed,
		Saves:  s.saves,
		Recent: append([]RequestRecord(nil), s.recent...),
	}
}

// middleware records every request once the handler chain has run
func (s *Stats) middleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	// fiber reuses request buffers once the handler returns
	s.record(RequestRecord{
		Time:      start,
		Method:    strings.Clone(c.Method()),
		Path:      strings.Clone(c.Path()),
		Status:    c.Response().StatusCode(),
		Latency:   time.Since(start),
		RequestID: requestID(c),
	})
	return err
}

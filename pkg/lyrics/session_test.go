// ABOUTME: Tests for sync authoring sessions
// ABOUTME: Covers cursor movement, upserts, past-end handling and serialization
package lyrics

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
)

func TestNewSessionPreconditions(t *testing.T) {
	var pe *PreconditionError

	if _, err := NewSession("", false); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError for empty text, got %v", err)
	}
	if _, err := NewSession(" \n\t\n", false); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError for whitespace text, got %v", err)
	}
	if _, err := NewSession("A\nB", true); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError for instrumental song, got %v", err)
	}

	s, err := NewSession("A\nB\nC", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Cursor() != -1 {
		t.Errorf("expected cursor -1, got %d", s.Cursor())
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 lines, got %d", s.Len())
	}
	if len(s.Markers()) != 0 {
		t.Errorf("expected no markers, got %d", len(s.Markers()))
	}
}

func TestSessionScenario(t *testing.T) {
	s, err := NewSession("A\nB\nC", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	update, err := s.Mark(0.0)
	if err != nil {
		t.Fatalf("mark lead-in failed: %v", err)
	}
	if m, ok := s.Marker(lrc.LeadIn); !ok || m.Time != 0 || m.Text != "" {
		t.Errorf("expected lead-in marker {-1 0 \"\"}, got %+v (ok=%v)", m, ok)
	}
	if s.Cursor() != 0 {
		t.Errorf("expected cursor 0, got %d", s.Cursor())
	}
	if update.Current != 0 || update.Upcoming != 1 {
		t.Errorf("expected update {0 1}, got %+v", update)
	}

	if err := s.Select(2); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	update, err = s.Mark(9.0)
	if err != nil {
		t.Fatalf("mark line 2 failed: %v", err)
	}
	if m, ok := s.Marker(2); !ok || m.Time != 9.0 || m.Text != "C" {
		t.Errorf("expected marker {2 9 C}, got %+v (ok=%v)", m, ok)
	}
	if s.Cursor() != 3 || !s.PastEnd() {
		t.Errorf("expected cursor 3 (past end), got %d", s.Cursor())
	}
	if update.Current != 3 || update.Upcoming != 3 {
		t.Errorf("expected update clipped to {3 3}, got %+v", update)
	}

	_, err = s.Mark(12.0)
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError past end, got %v", err)
	}
	if s.Cursor() != 3 || len(s.Markers()) != 2 {
		t.Error("expected failed mark to leave state unchanged")
	}
}

func TestSessionLeadInIgnoresClock(t *testing.T) {
	s, _ := NewSession("A", false)

	if _, err := s.Mark(42.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, _ := s.Marker(lrc.LeadIn); m.Time != 0 {
		t.Errorf("expected lead-in time 0, got %v", m.Time)
	}
}

func TestSessionReselectUpsertsAndResumes(t *testing.T) {
	s, _ := NewSession("A\nB\nC\nD", false)

	s.Mark(0)   // lead-in
	s.Mark(1.0) // A
	s.Mark(2.0) // B
	s.Mark(3.0) // C

	if err := s.Select(1); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := s.Mark(2.4); err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}

	if m, _ := s.Marker(1); m.Time != 2.4 {
		t.Errorf("expected B re-marked at 2.4, got %v", m.Time)
	}
	if len(s.Markers()) != 4 {
		t.Errorf("expected 4 markers after upsert, got %d", len(s.Markers()))
	}
	// advance is relative to the re-marked line, not the furthest mark
	if s.Cursor() != 2 {
		t.Errorf("expected cursor 2 after re-marking line 1, got %d", s.Cursor())
	}
}

func TestSessionMarksUnclamped(t *testing.T) {
	s, _ := NewSession("A\nB", false)
	s.Select(0)
	s.Mark(10)
	s.Mark(5) // earlier than A, kept as is

	if m, _ := s.Marker(1); m.Time != 5 {
		t.Errorf("expected unclamped time 5, got %v", m.Time)
	}

	text, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if text != "[00:05.00]B\n[00:10.00]A" {
		t.Errorf("unexpected serialization: %q", text)
	}
}

func TestSessionNegativeClock(t *testing.T) {
	s, _ := NewSession("A", false)
	s.Select(0)
	s.Mark(-0.3)

	if m, _ := s.Marker(0); m.Time != 0 {
		t.Errorf("expected negative clock recorded as 0, got %v", m.Time)
	}
}

func TestSessionSelectRange(t *testing.T) {
	s, _ := NewSession("A\nB", false)

	for _, idx := range []int{-1, 0, 1} {
		if err := s.Select(idx); err != nil {
			t.Errorf("select(%d): unexpected error %v", idx, err)
		}
	}

	var ise *InvalidStateError
	for _, idx := range []int{-2, 2, 10} {
		if err := s.Select(idx); !errors.As(err, &ise) {
			t.Errorf("select(%d): expected InvalidStateError, got %v", idx, err)
		}
	}
}

func TestSessionSerializeRequiresMarkers(t *testing.T) {
	s, _ := NewSession("A", false)

	var pe *PreconditionError
	if _, err := s.Serialize(); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
}

func TestSessionSerializeRoundTrip(t *testing.T) {
	s, _ := NewSession("first\n\nthird", false)
	s.Mark(0)
	s.Mark(1.239)
	s.Mark(2.5)
	s.Mark(4.01)

	text, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	lines := lrc.Parse(text)
	want := []lrc.Line{{Time: 0, Text: ""}, {Time: 1.23, Text: "first"}, {Time: 2.5, Text: ""}, {Time: 4.01, Text: "third"}}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %+v, got %+v", i, want[i], lines[i])
		}
	}
}

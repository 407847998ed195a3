// ABOUTME: Error taxonomy for the lyrics engine
// ABOUTME: Precondition, invalid-state and transport failures
package lyrics

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when a song has no lyrics yet
var ErrNotFound = errors.New("lyrics not found")

// PreconditionError reports an operation refused because its inputs are
// missing, e.g. syncing without text or committing without markers.
// State is left unchanged.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// InvalidStateError reports an operation that is not allowed in the current state
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// TransportError wraps a failed fetch or save
type TransportError struct {
	Op     string
	SongID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.SongID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func precondition(op, reason string) error {
	return &PreconditionError{Op: op, Reason: reason}
}

func invalidState(op, reason string) error {
	return &InvalidStateError{Op: op, Reason: reason}
}

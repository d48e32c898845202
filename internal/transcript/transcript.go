// Package transcript maintains the ordered conversation log.
//
// A Log is append-only with one exception: the most recently appended
// turn may be mutated in place while its response is still in flight
// (status pending or streaming). Finalization freezes a turn exactly
// once; Clear is the only operation that removes turns.
//
// Thread Safety: all Log methods are safe for concurrent use. Readers
// receive defensive copies.
package transcript

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrStreamActive indicates a second in-flight turn was appended
	// while one is still pending or streaming.
	ErrStreamActive = errors.New("a streaming turn is already active")

	// ErrTurnNotFound indicates the turn ID does not name the mutable tail.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrTurnFinalized indicates a mutation was attempted on a turn whose
	// status already left streaming.
	ErrTurnFinalized = errors.New("turn already finalized")

	// ErrTextRegression indicates a streaming update tried to shrink the
	// turn's text. Streamed text only ever grows.
	ErrTextRegression = errors.New("streaming text must not shrink")

	// ErrInvalidStatus indicates a status value outside the allowed set
	// for the attempted operation.
	ErrInvalidStatus = errors.New("invalid turn status")
)

// Author identifies who produced a turn.
type Author string

// Turn authors.
const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)

// Status is the lifecycle state of a turn.
type Status string

// Turn statuses. Pending covers the gap between prompt submission and
// the first fragment; streaming covers fragment delivery; done and
// errored are terminal.
const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusErrored   Status = "errored"
)

// Terminal reports whether the status freezes the turn.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusErrored
}

// Turn is one entry in the conversation transcript.
type Turn struct {
	ID     uuid.UUID `json:"id"`
	Author Author    `json:"author"`
	Text   string    `json:"text"`
	Status Status    `json:"status"`
}

// Log is the ordered sequence of turns.
//
// Note: The zero value is NOT useful - use NewLog() to create instances.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewLog creates an empty transcript log.
func NewLog() *Log {
	return &Log{
		turns: make([]Turn, 0),
	}
}

// Append adds a turn and returns it with its assigned ID.
//
// Appending a non-terminal turn (pending or streaming) while another
// one is still unfinalized returns ErrStreamActive: at most one
// response may be in flight at a time.
func (l *Log) Append(author Author, text string, status Status) (Turn, error) {
	switch status {
	case StatusPending, StatusStreaming, StatusDone, StatusErrored:
	default:
		return Turn{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !status.Terminal() {
		for i := range l.turns {
			if !l.turns[i].Status.Terminal() {
				return Turn{}, ErrStreamActive
			}
		}
	}

	turn := Turn{
		ID:     uuid.New(),
		Author: author,
		Text:   text,
		Status: status,
	}
	l.turns = append(l.turns, turn)
	return turn, nil
}

// UpdateTrailingText replaces the text of the mutable tail turn with the
// aggregator's current buffer. A pending turn becomes streaming on its
// first update. Only the most recently appended turn may be updated, the
// turn must not be finalized, and text never shrinks while streaming.
func (l *Log) UpdateTrailingText(id uuid.UUID, text string) (Turn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tail, err := l.tailLocked(id)
	if err != nil {
		return Turn{}, err
	}
	if tail.Status.Terminal() {
		return Turn{}, ErrTurnFinalized
	}
	if len(text) < len(tail.Text) {
		return Turn{}, fmt.Errorf("%w: %d -> %d bytes", ErrTextRegression, len(tail.Text), len(text))
	}

	tail.Text = text
	if tail.Status == StatusPending {
		tail.Status = StatusStreaming
	}
	return *tail, nil
}

// Finalize freezes the tail turn with its final text and a terminal
// status. Exactly one finalization is accepted per turn.
func (l *Log) Finalize(id uuid.UUID, text string, status Status) (Turn, error) {
	if !status.Terminal() {
		return Turn{}, fmt.Errorf("%w: %q is not terminal", ErrInvalidStatus, status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tail, err := l.tailLocked(id)
	if err != nil {
		return Turn{}, err
	}
	if tail.Status.Terminal() {
		return Turn{}, ErrTurnFinalized
	}

	tail.Text = text
	tail.Status = status
	return *tail, nil
}

// tailLocked returns a pointer to the tail turn if it carries the given
// ID. Turns before the tail are immutable regardless of ID.
func (l *Log) tailLocked(id uuid.UUID) (*Turn, error) {
	if len(l.turns) == 0 {
		return nil, ErrTurnNotFound
	}
	tail := &l.turns[len(l.turns)-1]
	if tail.ID != id {
		return nil, fmt.Errorf("%w: %s is not the mutable tail", ErrTurnNotFound, id)
	}
	return tail, nil
}

// Turns returns a copy of all turns for thread-safe access.
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]Turn, len(l.turns))
	copy(result, l.turns)
	return result
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Tail returns the most recent turn, if any.
func (l *Log) Tail() (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// Clear removes all turns. This is the "start over" transition; it is
// never part of normal streaming.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = make([]Turn, 0)
}

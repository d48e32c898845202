// Package stream aggregates the incremental text fragments of one model
// response into a growing full-text buffer.
//
// Ordering is the whole point: fragments are applied strictly in
// arrival order, and the registered observer sees the updated buffer
// synchronously before the source may deliver the next fragment. The
// backpressure is implicit — a source that waits for the fragment
// callback to return cannot outrun the transcript.
package stream

import (
	"context"
	"fmt"
	"strings"
)

// Source delivers one response as an in-order, finite sequence of text
// fragments, pushed through onFragment. The source must not deliver the
// next fragment until onFragment returns, and must stop (returning the
// callback's error) when it fails. The return value is the terminal
// signal: nil for normal completion, the terminal error otherwise.
type Source func(ctx context.Context, onFragment func(fragment string) error) error

// Observer receives the full accumulated buffer after each fragment.
// Returning an error stops the stream; text already observed stays.
type Observer func(buffer string) error

// Collector accumulates fragments and notifies an observer.
//
// Not safe for concurrent use: a collector belongs to exactly one
// stream, which is sequential by contract.
type Collector struct {
	buf      strings.Builder
	observer Observer
}

// NewCollector creates a collector with an optional observer.
func NewCollector(observer Observer) *Collector {
	return &Collector{observer: observer}
}

// Write appends a fragment and synchronously hands the grown buffer to
// the observer before returning. Empty fragments are dropped without
// notifying: the buffer did not change.
func (c *Collector) Write(fragment string) error {
	if fragment == "" {
		return nil
	}
	c.buf.WriteString(fragment)
	if c.observer == nil {
		return nil
	}
	if err := c.observer(c.buf.String()); err != nil {
		return fmt.Errorf("applying fragment: %w", err)
	}
	return nil
}

// Final returns the accumulated buffer.
func (c *Collector) Final() string {
	return c.buf.String()
}

// Len returns the accumulated byte count.
func (c *Collector) Len() int {
	return c.buf.Len()
}

// Collect drives a source to completion with a fresh collector and
// returns the accumulated text. On source failure the partial buffer
// comes back alongside the terminal error, preserved for diagnostics
// but never for extraction.
func Collect(ctx context.Context, src Source, observer Observer) (string, error) {
	c := NewCollector(observer)
	if err := src(ctx, c.Write); err != nil {
		return c.Final(), err
	}
	return c.Final(), nil
}

// Package sse implements the Server-Sent Events wire format used by
// the streaming endpoints.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Writer frames events onto an http.ResponseWriter and flushes after
// every event so fragments reach the client as they arrive rather than
// when some buffer fills.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for an event stream and commits the stream
// headers. It fails when the underlying connection cannot flush, which
// SSE requires.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	return &Writer{w: w, flusher: flusher}, nil
}

// JSON sends a named event whose data payload is the JSON encoding of v.
func (sw *Writer) JSON(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	return sw.send(event, string(data))
}

// send writes one event. Multi-line data gets one data: line per line,
// per the SSE spec; the blank line terminates the event.
func (sw *Writer) send(event, data string) error {
	if _, err := fmt.Fprintf(sw.w, "event: %s\n", event); err != nil {
		return fmt.Errorf("writing event type: %w", err)
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(sw.w, "data: %s\n", line); err != nil {
			return fmt.Errorf("writing event data: %w", err)
		}
	}
	if _, err := fmt.Fprint(sw.w, "\n"); err != nil {
		return fmt.Errorf("terminating event: %w", err)
	}
	sw.flusher.Flush()
	return nil
}

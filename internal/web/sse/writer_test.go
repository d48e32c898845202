package sse_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/easelhq/easel/internal/web/sse"
)

func TestNewWriter(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if sseWriter == nil {
		t.Fatal("writer is nil")
	}

	// Check headers
	headers := w.Header()
	if got := headers.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := headers.Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := headers.Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q, want keep-alive", got)
	}
	if got := headers.Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("X-Accel-Buffering = %q, want no", got)
	}
}

// noFlushWriter is a ResponseWriter that does NOT implement http.Flusher.
type noFlushWriter struct {
	header http.Header
}

func (w *noFlushWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (*noFlushWriter) Write([]byte) (int, error) {
	return 0, nil
}

func (*noFlushWriter) WriteHeader(int) {}

func TestNewWriter_NoFlusher(t *testing.T) {
	t.Parallel()

	w := &noFlushWriter{}
	_, err := sse.NewWriter(w)

	if err == nil {
		t.Error("expected error for non-Flusher ResponseWriter")
	}

	if !strings.Contains(err.Error(), "does not support streaming") {
		t.Errorf("wrong error message: %v", err)
	}
}

func TestWriter_JSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	payload := map[string]string{"text": "hello"}
	if err := sseWriter.JSON("turn", payload); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	got := w.Body.String()
	want := "event: turn\ndata: {\"text\":\"hello\"}\n\n"
	if got != want {
		t.Errorf("frame = %q, want %q", got, want)
	}

	if !w.Flushed {
		t.Error("event was not flushed to the client")
	}
}

func TestWriter_JSON_SequentialEvents(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := sseWriter.JSON("turn", map[string]int{"n": 1}); err != nil {
		t.Fatalf("first JSON failed: %v", err)
	}
	if err := sseWriter.JSON("done", struct{}{}); err != nil {
		t.Fatalf("second JSON failed: %v", err)
	}

	body := w.Body.String()

	turnIndex := strings.Index(body, "event: turn")
	doneIndex := strings.Index(body, "event: done")
	if turnIndex == -1 || doneIndex == -1 {
		t.Fatalf("missing events in body: %q", body)
	}
	if turnIndex >= doneIndex {
		t.Errorf("events out of order: turn at %d, done at %d", turnIndex, doneIndex)
	}

	// Every event is terminated by a blank line before the next begins.
	if got := strings.Count(body, "\n\n"); got != 2 {
		t.Errorf("blank-line terminators = %d, want 2", got)
	}
}

func TestWriter_JSON_MultilineData(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := sseWriter.JSON("turn", map[string]string{"text": "line1\nline2"}); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	body := w.Body.String()

	// json.Marshal escapes the newline, so the payload must remain one
	// data: line. A literal newline inside a data value would corrupt
	// the framing.
	if got := strings.Count(body, "data: "); got != 1 {
		t.Errorf("data lines = %d, want 1 (newline must be escaped in JSON)", got)
	}
	if !strings.Contains(body, `line1\nline2`) {
		t.Errorf("body %q missing escaped newline payload", body)
	}
}

func TestWriter_JSON_UnencodableValue(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := sseWriter.JSON("turn", make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}

	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty: nothing may hit the wire when encoding fails", w.Body.String())
	}
}

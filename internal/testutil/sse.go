package testutil

import (
	"bufio"
	"strings"
	"testing"
)

// SSEEvent is one parsed Server-Sent Event.
type SSEEvent struct {
	Type string // event: field, "message" when absent
	Data string // data: field, multi-line values joined with \n
}

// ParseSSEEvents parses a recorded SSE response body into events.
//
// Follows the W3C stream format: an empty line terminates an event,
// multiple data: lines are joined with newlines, lines starting with
// ":" are comments, and an event without an explicit type defaults to
// "message".
//
// Example:
//
//	events := testutil.ParseSSEEvents(t, rec.Body.String())
//	turns := testutil.FindAllEvents(events, "turn")
//	require.NotNil(t, testutil.FindEvent(events, "done"))
func ParseSSEEvents(t *testing.T, body string) []SSEEvent {
	t.Helper()

	var (
		events    []SSEEvent
		eventType string
		dataLines []string
	)

	flush := func() {
		if eventType == "" && len(dataLines) == 0 {
			return
		}
		if eventType == "" {
			eventType = "message"
		}
		events = append(events, SSEEvent{
			Type: eventType,
			Data: strings.Join(dataLines, "\n"),
		})
		eventType = ""
		dataLines = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment, ignored
		case strings.HasPrefix(line, "event: "):
			if eventType != "" {
				t.Fatalf("sse parse error at line %d: second event type before blank line: %q", lineNum, line)
			}
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		default:
			t.Fatalf("sse parse error at line %d: unexpected line: %q", lineNum, line)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("sse scan error: %v", err)
	}
	if eventType != "" || len(dataLines) > 0 {
		t.Fatalf("sse stream ended mid-event (missing terminating blank line)")
	}

	return events
}

// FindEvent returns the first event of the given type, or nil.
func FindEvent(events []SSEEvent, eventType string) *SSEEvent {
	for i := range events {
		if events[i].Type == eventType {
			return &events[i]
		}
	}
	return nil
}

// FindAllEvents returns every event of the given type, in order.
func FindAllEvents(events []SSEEvent, eventType string) []SSEEvent {
	var found []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			found = append(found, e)
		}
	}
	return found
}

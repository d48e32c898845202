// Package testutil provides test doubles and parsing helpers shared
// across packages.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockModelName is the Genkit model name MockModel registers under.
const MockModelName = "mock/test-model"

// MockModel provides deterministic model responses for testing.
// It matches the last user message against registered rules and
// streams the scripted fragments of the first match, one chunk per
// fragment, so tests can observe incremental delivery.
//
// Thread-safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback []string
	calls    []ModelCall
}

type mockRule struct {
	pattern   string   // substring match in user message, lowercase
	fragments []string // streamed in order on success
	callErr   error    // whole-call failure while failures > 0
	failures  int      // remaining whole-call failures
	streamErr error    // returned after fragments stream (mid-call failure)
}

// ModelCall records a single call to the mock model.
type ModelCall struct {
	UserMessage string // last user message text
	System      string // system instruction text, if any
}

// NewMockModel creates a mock model that streams the given fallback
// fragments when no rule matches.
func NewMockModel(fallback ...string) *MockModel {
	return &MockModel{fallback: fallback}
}

// Respond registers a rule: when a user message contains pattern
// (case-insensitive), the fragments are streamed in order and the call
// succeeds. Rules are checked in registration order; first match wins.
func (m *MockModel) Respond(pattern string, fragments ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{
		pattern:   strings.ToLower(pattern),
		fragments: fragments,
	})
}

// RespondAfterFailures registers a rule that fails the whole call with
// err the first failures times it matches, streaming nothing, and then
// streams fragments successfully on later matches.
func (m *MockModel) RespondAfterFailures(pattern string, failures int, err error, fragments ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{
		pattern:   strings.ToLower(pattern),
		fragments: fragments,
		callErr:   err,
		failures:  failures,
	})
}

// FailMidStream registers a rule that streams the given fragments and
// then fails with err instead of completing.
func (m *MockModel) FailMidStream(pattern string, err error, fragments ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{
		pattern:   strings.ToLower(pattern),
		fragments: fragments,
		streamErr: err,
	})
}

// Calls returns a copy of all recorded calls.
func (m *MockModel) Calls() []ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ModelCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Reset clears all recorded calls (keeps registered rules).
func (m *MockModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// RegisterModel registers the mock as a Genkit model under
// MockModelName and returns the model reference.
func (m *MockModel) RegisterModel(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, MockModelName, &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      false,
			SystemRole: true,
			Media:      false,
		},
	}, m.generate)
}

// generate is the Genkit model function.
func (m *MockModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	userText := lastUserMessage(req)

	m.mu.Lock()
	m.calls = append(m.calls, ModelCall{
		UserMessage: userText,
		System:      systemText(req),
	})

	fragments := m.fallback
	var streamErr error
	if rule := m.match(userText); rule != nil {
		if rule.failures > 0 {
			rule.failures--
			err := rule.callErr
			m.mu.Unlock()
			return nil, err
		}
		fragments = rule.fragments
		streamErr = rule.streamErr
	}
	m.mu.Unlock()

	var full strings.Builder
	for _, fragment := range fragments {
		full.WriteString(fragment)
		if cb != nil {
			if err := cb(ctx, &ai.ModelResponseChunk{
				Content: []*ai.Part{ai.NewTextPart(fragment)},
			}); err != nil {
				return nil, err
			}
		}
	}

	if streamErr != nil {
		return nil, streamErr
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(full.String())},
		},
	}, nil
}

// match returns a pointer into the rule slice so stateful rules can
// decrement their failure counters. Caller must hold m.mu.
func (m *MockModel) match(userText string) *mockRule {
	lower := strings.ToLower(userText)
	for i := range m.rules {
		if strings.Contains(lower, m.rules[i].pattern) {
			return &m.rules[i]
		}
	}
	return nil
}

// lastUserMessage extracts the text of the most recent user message.
func lastUserMessage(req *ai.ModelRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			return req.Messages[i].Text()
		}
	}
	return ""
}

// systemText extracts the system instruction, if one was attached.
func systemText(req *ai.ModelRequest) string {
	for _, msg := range req.Messages {
		if msg.Role == ai.RoleSystem {
			return msg.Text()
		}
	}
	return ""
}

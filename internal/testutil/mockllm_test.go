package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/go-cmp/cmp"
)

func userRequest(input string) *ai.ModelRequest {
	return &ai.ModelRequest{
		Messages: []*ai.Message{
			ai.NewUserMessage(ai.NewTextPart(input)),
		},
	}
}

func TestMockModel_PatternMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rules []struct {
			pattern   string
			fragments []string
		}
		input string
		want  string
	}{
		{
			name:  "fallback when no rules",
			input: "hello",
			want:  "default response",
		},
		{
			name: "exact match",
			rules: []struct {
				pattern   string
				fragments []string
			}{
				{"hello", []string{"hi ", "there"}},
			},
			input: "hello",
			want:  "hi there",
		},
		{
			name: "case insensitive match",
			rules: []struct {
				pattern   string
				fragments []string
			}{
				{"hello", []string{"hi there"}},
			},
			input: "HELLO world",
			want:  "hi there",
		},
		{
			name: "first match wins",
			rules: []struct {
				pattern   string
				fragments []string
			}{
				{"hello", []string{"first"}},
				{"hello", []string{"second"}},
			},
			input: "hello",
			want:  "first",
		},
		{
			name: "no match returns fallback",
			rules: []struct {
				pattern   string
				fragments []string
			}{
				{"hello", []string{"hi"}},
			},
			input: "goodbye",
			want:  "default response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMockModel("default response")
			for _, r := range tt.rules {
				m.Respond(r.pattern, r.fragments...)
			}

			resp, err := m.generate(context.Background(), userRequest(tt.input), nil)
			if err != nil {
				t.Fatalf("generate() unexpected error: %v", err)
			}
			if got := resp.Message.Text(); got != tt.want {
				t.Errorf("generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMockModel_StreamsOneChunkPerFragment(t *testing.T) {
	t.Parallel()

	m := NewMockModel()
	m.Respond("test", "alpha", "beta", "gamma")

	var chunks []string
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		for _, p := range chunk.Content {
			chunks = append(chunks, p.Text)
		}
		return nil
	}

	resp, err := m.generate(context.Background(), userRequest("test"), cb)
	if err != nil {
		t.Fatalf("generate() unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"alpha", "beta", "gamma"}, chunks); diff != "" {
		t.Errorf("streamed chunks mismatch (-want +got):\n%s", diff)
	}
	if got := resp.Message.Text(); got != "alphabetagamma" {
		t.Errorf("final text = %q, want concatenation of fragments", got)
	}
}

func TestMockModel_RespondAfterFailures(t *testing.T) {
	t.Parallel()

	failure := errors.New("429 rate limit")
	m := NewMockModel()
	m.RespondAfterFailures("flaky", 2, failure, "ok")

	for i := range 2 {
		_, err := m.generate(context.Background(), userRequest("flaky"), nil)
		if !errors.Is(err, failure) {
			t.Fatalf("call %d error = %v, want scripted failure", i+1, err)
		}
	}

	resp, err := m.generate(context.Background(), userRequest("flaky"), nil)
	if err != nil {
		t.Fatalf("call after failures exhausted: unexpected error %v", err)
	}
	if got := resp.Message.Text(); got != "ok" {
		t.Errorf("recovered response = %q, want %q", got, "ok")
	}
}

func TestMockModel_FailMidStream(t *testing.T) {
	t.Parallel()

	failure := errors.New("connection reset")
	m := NewMockModel()
	m.FailMidStream("partial", failure, "one", "two")

	var chunks []string
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		for _, p := range chunk.Content {
			chunks = append(chunks, p.Text)
		}
		return nil
	}

	_, err := m.generate(context.Background(), userRequest("partial"), cb)
	if !errors.Is(err, failure) {
		t.Fatalf("generate() error = %v, want scripted mid-stream failure", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, chunks); diff != "" {
		t.Errorf("chunks before failure mismatch (-want +got):\n%s", diff)
	}
}

func TestMockModel_CallbackErrorPropagates(t *testing.T) {
	t.Parallel()

	m := NewMockModel()
	m.Respond("test", "a", "b")

	callbackErr := errors.New("consumer gave up")
	calls := 0
	cb := func(_ context.Context, _ *ai.ModelResponseChunk) error {
		calls++
		return callbackErr
	}

	_, err := m.generate(context.Background(), userRequest("test"), cb)
	if !errors.Is(err, callbackErr) {
		t.Fatalf("generate() error = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want streaming to stop after first error", calls)
	}
}

func TestMockModel_CallRecording(t *testing.T) {
	t.Parallel()

	m := NewMockModel("ok")
	req := &ai.ModelRequest{
		Messages: []*ai.Message{
			{Role: ai.RoleSystem, Content: []*ai.Part{ai.NewTextPart("be terse")}},
			ai.NewUserMessage(ai.NewTextPart("hello")),
		},
	}

	if _, err := m.generate(context.Background(), req, nil); err != nil {
		t.Fatalf("generate() unexpected error: %v", err)
	}

	want := []ModelCall{{UserMessage: "hello", System: "be terse"}}
	if diff := cmp.Diff(want, m.Calls()); diff != "" {
		t.Errorf("Calls() mismatch (-want +got):\n%s", diff)
	}

	m.Reset()
	if got := len(m.Calls()); got != 0 {
		t.Errorf("Calls() after Reset() len = %d, want 0", got)
	}
}

func TestMockModel_RegisterModel(t *testing.T) {
	t.Parallel()

	m := NewMockModel("registered")
	g := genkit.Init(context.Background())

	model := m.RegisterModel(g)
	if model == nil {
		t.Fatal("RegisterModel() returned nil")
	}
	if got := model.Name(); got != MockModelName {
		t.Errorf("RegisterModel().Name() = %q, want %q", got, MockModelName)
	}

	if found := genkit.LookupModel(g, MockModelName); found == nil {
		t.Fatal("LookupModel() returned nil after registration")
	}
}

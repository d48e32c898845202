package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/stream"
	"github.com/easelhq/easel/internal/testutil"
)

// fastRetry keeps backoff delays negligible in tests.
var fastRetry = RetryConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func newTestGenerator(t *testing.T, mock *testutil.MockModel) *Generator {
	t.Helper()

	g := genkit.Init(context.Background())
	mock.RegisterModel(g)

	gen, err := New(Config{
		Genkit:      g,
		Model:       testutil.MockModelName,
		Temperature: 0.2,
		Logger:      log.NewNop(),
		Retry:       fastRetry,
		RateLimiter: rate.NewLimiter(rate.Inf, 1),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return gen
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	t.Run("missing genkit", func(t *testing.T) {
		t.Parallel()
		_, err := New(Config{Model: "googleai/gemini-2.5-flash"})
		if err == nil {
			t.Fatal("New() without Genkit should fail")
		}
	})

	t.Run("missing model", func(t *testing.T) {
		t.Parallel()
		g := genkit.Init(context.Background())
		_, err := New(Config{Genkit: g})
		if err == nil {
			t.Fatal("New() without Model should fail")
		}
	})
}

func TestStream_DeliversFragmentsInOrder(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel("fallback")
	mock.Respond("counter", "```json\n", `{"html":"<div></div>","css":"","js":""}`, "\n```")
	gen := newTestGenerator(t, mock)

	var got []string
	src := gen.Stream("make a counter")
	err := src(context.Background(), func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("source returned error: %v", err)
	}

	want := []string{"```json\n", `{"html":"<div></div>","css":"","js":""}`, "\n```"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_AttachesSystemInstructionAndPrompt(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel("ok")
	gen := newTestGenerator(t, mock)

	src := gen.Stream("draw a sunset")
	if err := src(context.Background(), func(string) error { return nil }); err != nil {
		t.Fatalf("source returned error: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].UserMessage != "draw a sunset" {
		t.Errorf("user message = %q, want prompt verbatim", calls[0].UserMessage)
	}
	if calls[0].System != systemInstruction {
		t.Errorf("system instruction not attached to the model request")
	}
}

func TestStream_SkipsEmptyParts(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.Respond("sparse", "a", "", "b")
	gen := newTestGenerator(t, mock)

	var got []string
	src := gen.Stream("sparse output")
	if err := src(context.Background(), func(fragment string) error {
		got = append(got, fragment)
		return nil
	}); err != nil {
		t.Fatalf("source returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.RespondAfterFailures("flaky", 2, errors.New("429 rate limit exceeded"), "recovered")
	gen := newTestGenerator(t, mock)

	text, err := stream.Collect(context.Background(), gen.Stream("flaky prompt"), nil)
	if err != nil {
		t.Fatalf("Collect returned error after retries: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q, want %q", text, "recovered")
	}
	if got := len(mock.Calls()); got != 3 {
		t.Errorf("model calls = %d, want 3 (two failures plus success)", got)
	}
}

func TestStream_NonRetryableFailsFast(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.RespondAfterFailures("bad", 1, errors.New("invalid argument"), "never reached")
	gen := newTestGenerator(t, mock)

	_, err := stream.Collect(context.Background(), gen.Stream("bad prompt"), nil)
	if err == nil {
		t.Fatal("expected error for non-retryable failure")
	}
	if got := len(mock.Calls()); got != 1 {
		t.Errorf("model calls = %d, want 1 (no retry)", got)
	}
}

func TestStream_ExhaustedRetriesReportAttempts(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.RespondAfterFailures("always", 10, errors.New("503 service unavailable"), "unreachable")
	gen := newTestGenerator(t, mock)

	_, err := stream.Collect(context.Background(), gen.Stream("always failing"), nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "after 2 retries") {
		t.Errorf("error = %v, want retry count in message", err)
	}
	if got := len(mock.Calls()); got != 3 {
		t.Errorf("model calls = %d, want 3 (initial plus two retries)", got)
	}
}

func TestStream_NoRetryOnceDeliveryBegan(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.FailMidStream("partial", errors.New("503 service unavailable"), "first", "second")
	gen := newTestGenerator(t, mock)

	text, err := stream.Collect(context.Background(), gen.Stream("partial output"), nil)
	if err == nil {
		t.Fatal("expected error for mid-stream failure")
	}
	if got := len(mock.Calls()); got != 1 {
		t.Errorf("model calls = %d, want 1: retrying after delivery would duplicate output", got)
	}
	if text != "firstsecond" {
		t.Errorf("partial text = %q, want fragments delivered before the failure", text)
	}
}

func TestStream_FragmentCallbackErrorStopsCall(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel()
	mock.Respond("steady", "one", "two", "three")
	gen := newTestGenerator(t, mock)

	delivered := 0
	src := gen.Stream("steady stream")
	err := src(context.Background(), func(string) error {
		delivered++
		return errors.New("downstream rejected fragment")
	})
	if err == nil {
		t.Fatal("expected error when the fragment callback fails")
	}
	if !strings.Contains(err.Error(), "downstream rejected fragment") {
		t.Errorf("error = %v, want downstream cause preserved", err)
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want delivery to stop at the first rejection", delivered)
	}
	if got := len(mock.Calls()); got != 1 {
		t.Errorf("model calls = %d, want 1 (downstream failures never retry)", got)
	}
}

func TestStream_CanceledContext(t *testing.T) {
	t.Parallel()

	mock := testutil.NewMockModel("never")
	gen := newTestGenerator(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := gen.Stream("anything")
	if err := src(ctx, func(string) error { return nil }); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

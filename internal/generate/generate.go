// Package generate drives the language model that turns prompts into
// streamed responses.
//
// A Generator captures model configuration, a proactive rate limiter
// and a bounded retry policy at construction. Its Stream method
// exposes each model call as a stream.Source, so the rest of the
// system consumes fragments without touching Genkit directly.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/stream"
)

var (
	// ErrEmptyPrompt rejects flow input whose prompt is blank.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrGenerationFailed wraps model failures surfaced through the flow.
	ErrGenerationFailed = errors.New("generation failed")
)

// Init boots Genkit with the Google AI plugin. The returned instance
// is shared by every Generator and flow in the process.
func Init(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.GeminiAPIKey}))
	if g == nil {
		return nil, fmt.Errorf("failed to initialize genkit")
	}
	return g, nil
}

// Config collects the dependencies a Generator needs.
type Config struct {
	Genkit      *genkit.Genkit
	Model       string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Temperature float32
	Logger      log.Logger

	// Optional. Zero values select DefaultRetryConfig and a limiter of
	// 10 requests/sec with a burst of 30.
	Retry       RetryConfig
	RateLimiter *rate.Limiter
}

// Generator turns a prompt into a stream of model output fragments.
//
// All configuration is captured immutably at construction, so a single
// Generator is safe for concurrent use.
type Generator struct {
	g           *genkit.Genkit
	model       string
	temperature float32
	retry       RetryConfig
	limiter     *rate.Limiter
	logger      log.Logger
}

// New builds a Generator from cfg.
func New(cfg Config) (*Generator, error) {
	if cfg.Genkit == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Generator{
		g:           cfg.Genkit,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		retry:       retry,
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// Stream returns a Source that runs one model call for prompt and
// delivers output fragments in arrival order.
//
// Transient failures are retried with exponential backoff, but only
// while nothing has been delivered: once a fragment reaches the
// caller, replaying the attempt would duplicate output downstream, so
// any later failure is terminal.
func (gen *Generator) Stream(prompt string) stream.Source {
	return func(ctx context.Context, onFragment func(string) error) error {
		return gen.streamWithRetry(ctx, prompt, onFragment)
	}
}

func (gen *Generator) streamWithRetry(ctx context.Context, prompt string, onFragment func(string) error) error {
	var lastErr error
	delay := gen.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= gen.retry.MaxRetries; attempt++ {
		// Rate limit each attempt, not just the first.
		if gen.limiter != nil {
			if err := gen.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		emitted := false
		err := gen.generate(ctx, prompt, func(fragment string) error {
			emitted = true
			return onFragment(fragment)
		})
		if err == nil {
			gen.logger.Debug("generation complete",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return nil
		}

		lastErr = err

		// A failure after delivery has begun cannot be replayed: the
		// caller already holds a prefix of this attempt's output.
		if emitted || !retryableError(err) {
			return fmt.Errorf("generate: %w", err)
		}

		// Last attempt - don't sleep
		if attempt == gen.retry.MaxRetries {
			break
		}

		gen.logger.Debug("retrying generation",
			"attempt", attempt+1,
			"delay", delay,
			"elapsed", time.Since(start),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, gen.retry.MaxInterval)
		}
	}

	return fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		gen.retry.MaxRetries, time.Since(start), lastErr)
}

// generate performs a single streaming model call. Every non-empty
// text part of every chunk is handed to deliver in order.
func (gen *Generator) generate(ctx context.Context, prompt string, deliver func(string) error) error {
	temperature := gen.temperature
	_, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.model),
		ai.WithSystem(systemInstruction),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithConfig(&genai.GenerateContentConfig{Temperature: &temperature}),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			if chunk == nil {
				return nil
			}
			for _, part := range chunk.Content {
				if part.Text == "" {
					continue
				}
				if err := deliver(part.Text); err != nil {
					return err
				}
			}
			return nil
		}),
	)
	return err
}

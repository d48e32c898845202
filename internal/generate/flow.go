package generate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the request payload for the generation flow.
type Input struct {
	Prompt string `json:"prompt"`
}

// Output is the final payload produced when the flow completes.
type Output struct {
	Text string `json:"text"`
}

// StreamChunk is the streaming payload type for the generation flow.
// Each chunk carries one raw model fragment.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the generation flow in Genkit.
const FlowName = "easel/generate"

// Flow is the type alias for the generation streaming flow.
type Flow = core.Flow[Input, Output, StreamChunk]

// Package-level singleton to prevent panic on re-registration.
// sync.Once ensures genkit.DefineStreamingFlow is called only once.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the generation flow singleton, defining it on first
// call. Later calls return the existing flow and ignore the arguments.
func NewFlow(g *genkit.Genkit, gen *Generator) *Flow {
	flowOnce.Do(func() {
		flow = gen.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting clears the flow singleton so a test can define
// the flow against its own Genkit instance.
// WARNING: Only use in tests. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow registers the Genkit streaming flow backed by this
// Generator.
//
// Use NewFlow instead of calling DefineFlow directly: flows register
// in a process-global registry and a second registration under the
// same name panics.
//
// The flow streams raw model fragments as they arrive and returns the
// full concatenated text once the call completes. The final text is
// always the concatenation of the streamed chunks.
func (gen *Generator) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			if strings.TrimSpace(input.Prompt) == "" {
				return Output{}, ErrEmptyPrompt
			}

			var sb strings.Builder
			src := gen.Stream(input.Prompt)
			err := src(ctx, func(fragment string) error {
				sb.WriteString(fragment)
				if streamCb != nil {
					return streamCb(ctx, StreamChunk{Text: fragment})
				}
				return nil
			})
			if err != nil {
				return Output{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
			}

			return Output{Text: sb.String()}, nil
		},
	)
}

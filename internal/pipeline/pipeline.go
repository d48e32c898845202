// Package pipeline sequences one prompt/response exchange end to end:
// transcript bookkeeping, fragment aggregation, artifact extraction and
// preview rendering.
//
// The order of operations is the contract. Fragments are applied to the
// transcript strictly in arrival order; extraction runs exactly once,
// strictly after the stream completes, never on a partial buffer; a
// failed stream never reaches the extractor. One exchange is in flight
// at a time, and the pipeline owns the single active artifact and the
// render surface outright.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/easelhq/easel/internal/artifact"
	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/preview"
	"github.com/easelhq/easel/internal/stream"
	"github.com/easelhq/easel/internal/transcript"
)

// Fixed user-facing texts. Raw diagnostics never reach the transcript;
// they go to logs.
const (
	// confirmationText replaces the raw response once its artifact is
	// live in the preview.
	confirmationText = "Done! Your creation is ready in the preview panel."

	// failureText is all a failed stream shows.
	failureText = "Something went wrong while generating a response. Please try again."
)

// ErrEmptyPrompt rejects prompts with no content.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Pipeline owns the conversation state for one preview session: the
// transcript log, the renderer with its surface, and the single active
// artifact slot. All state is instance state. Pipelines never share
// through package globals, so tests and sessions cannot interfere.
//
// Note: The zero value is NOT useful - use New() to create instances.
type Pipeline struct {
	log      *transcript.Log
	renderer *preview.Renderer
	logger   log.Logger

	mu       sync.Mutex
	inFlight bool
	active   *artifact.Artifact
}

// New creates a pipeline around a transcript log and a renderer.
func New(tlog *transcript.Log, renderer *preview.Renderer, logger log.Logger) *Pipeline {
	return &Pipeline{
		log:      tlog,
		renderer: renderer,
		logger:   logger,
	}
}

// Submit runs one exchange: it appends the user turn, opens a pending
// system turn, drives the source through the aggregator (each fragment
// updating the system turn before the next is accepted), and settles
// the turn when the stream ends.
//
// Outcomes live on the returned turn, not in the error:
//   - stream completed, artifact extracted → rendered, turn done with a
//     fixed confirmation, ArtifactReady
//   - stream completed, no artifact → turn done with the raw text,
//     ArtifactRejected
//   - stream failed (including cancellation) → turn errored with a
//     fixed generic message, extraction never runs
//
// The error return is reserved for refusing or losing the exchange
// itself: an empty prompt, a stream already in flight
// (transcript.ErrStreamActive), or the turn vanishing mid-stream
// because Reset was called.
func (p *Pipeline) Submit(ctx context.Context, prompt string, src stream.Source, events Events) (transcript.Turn, error) {
	if strings.TrimSpace(prompt) == "" {
		return transcript.Turn{}, ErrEmptyPrompt
	}
	if events == nil {
		events = nopEvents{}
	}

	if err := p.begin(); err != nil {
		return transcript.Turn{}, err
	}
	defer p.end()

	userTurn, err := p.log.Append(transcript.AuthorUser, prompt, transcript.StatusDone)
	if err != nil {
		return transcript.Turn{}, err
	}
	events.TurnUpdated(userTurn)

	turn, err := p.log.Append(transcript.AuthorSystem, "", transcript.StatusPending)
	if err != nil {
		return transcript.Turn{}, err
	}
	events.TurnUpdated(turn)

	final, streamErr := stream.Collect(ctx, src, func(buffer string) error {
		updated, err := p.log.UpdateTrailingText(turn.ID, buffer)
		if err != nil {
			return err
		}
		events.TurnUpdated(updated)
		return nil
	})

	if streamErr != nil {
		p.logger.Error("stream failed",
			"turn_id", turn.ID,
			"error", streamErr,
			"partial_bytes", len(final))
		return p.finalize(turn.ID, failureText, transcript.StatusErrored, events)
	}

	a := artifact.Extract(final)
	if a == nil {
		p.logger.Debug("response carries no artifact, raw text stands",
			"turn_id", turn.ID,
			"response_bytes", len(final))
		finalized, err := p.finalize(turn.ID, final, transcript.StatusDone, events)
		if err == nil {
			events.ArtifactRejected()
		}
		return finalized, err
	}

	p.renderer.RenderArtifact(a)
	p.setActive(a)

	finalized, err := p.finalize(turn.ID, confirmationText, transcript.StatusDone, events)
	if err == nil {
		events.ArtifactReady(a)
	}
	return finalized, err
}

// finalize settles the turn and reports the last update. A missing turn
// means Reset raced the stream; the exchange is lost and the error says
// so.
func (p *Pipeline) finalize(id uuid.UUID, text string, status transcript.Status, events Events) (transcript.Turn, error) {
	finalized, err := p.log.Finalize(id, text, status)
	if err != nil {
		p.logger.Warn("turn vanished before finalization, transcript was likely reset",
			"turn_id", id,
			"error", err)
		return transcript.Turn{}, err
	}
	events.TurnUpdated(finalized)
	return finalized, nil
}

// Reset returns the session to its start state: transcript cleared,
// surface blanked, active artifact dropped. An exchange still in flight
// fails out on its next transcript update.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	p.log.Clear()
	p.renderer.Reset()
	p.logger.Info("pipeline reset")
}

// Active returns a copy of the active artifact, or nil when none is
// bound to the preview.
func (p *Pipeline) Active() *artifact.Artifact {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return nil
	}
	a := *p.active
	return &a
}

// Turns returns the transcript as a copy.
func (p *Pipeline) Turns() []transcript.Turn {
	return p.log.Turns()
}

// Busy reports whether an exchange is currently in flight. The answer
// is advisory: a Submit racing this check still settles the conflict
// itself and loses with transcript.ErrStreamActive.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return transcript.ErrStreamActive
	}
	p.inFlight = true
	return nil
}

func (p *Pipeline) end() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Pipeline) setActive(a *artifact.Artifact) {
	p.mu.Lock()
	p.active = a
	p.mu.Unlock()
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/easelhq/easel/internal/artifact"
	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/pipeline"
	"github.com/easelhq/easel/internal/preview"
	"github.com/easelhq/easel/internal/stream"
	"github.com/easelhq/easel/internal/transcript"
	"github.com/easelhq/easel/internal/web/sse"
)

// maxPromptBytes caps the request body for POST /api/generate. Prompts
// are human-typed text; anything larger is a client bug or abuse.
const maxPromptBytes = 16 << 10

// Event names on the generate stream.
const (
	eventTurn     = "turn"
	eventPreview  = "preview"
	eventRejected = "rejected"
	eventError    = "error"
	eventDone     = "done"
)

// Streamer produces one model stream per prompt.
type Streamer interface {
	Stream(prompt string) stream.Source
}

// generateHandler runs one exchange and narrates it over SSE.
type generateHandler struct {
	pipe     *pipeline.Pipeline
	frame    *preview.Frame
	streamer Streamer
	logger   log.Logger
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// previewPayload carries the full preview document. The client swaps
// its frame wholesale; there is no incremental patching.
type previewPayload struct {
	Document string `json:"document"`
	Version  uint64 `json:"version"`
}

type donePayload struct {
	TurnID         string `json:"turn_id"`
	ArtifactActive bool   `json:"artifact_active"`
}

func (h *generateHandler) generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPromptBytes)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "prompt_too_long",
				"prompt exceeds the 16 KiB limit", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request",
			"request body must be JSON with a prompt field", h.logger)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "empty_prompt", "prompt must not be empty", h.logger)
		return
	}

	// Refuse early while a plain 409 is still possible. A Submit racing
	// past this check settles the conflict itself, and that refusal
	// arrives as an SSE error event instead.
	if h.pipe.Busy() {
		writeError(w, http.StatusConflict, "stream_active",
			"a generation is already in flight", h.logger)
		return
	}

	sw, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported",
			"server cannot stream on this connection", h.logger)
		return
	}

	events := &sseEvents{w: sw, frame: h.frame, logger: h.logger}

	turn, err := h.pipe.Submit(r.Context(), req.Prompt, h.streamer.Stream(req.Prompt), events)
	if err != nil {
		h.streamFailed(sw, err)
		return
	}

	done := donePayload{
		TurnID:         turn.ID.String(),
		ArtifactActive: h.pipe.Active() != nil,
	}
	if err := sw.JSON(eventDone, done); err != nil {
		h.logger.Debug("client gone before done event", "error", err)
	}
}

// streamFailed reports a refused or lost exchange on the already
// committed stream. The headers are on the wire, so the refusal has to
// travel as an event.
func (h *generateHandler) streamFailed(sw *sse.Writer, err error) {
	code := "stream_error"
	message := "the exchange was lost"
	switch {
	case errors.Is(err, transcript.ErrStreamActive):
		code = "stream_active"
		message = "a generation is already in flight"
	case errors.Is(err, transcript.ErrTurnNotFound):
		code = "stream_reset"
		message = "the session was reset while streaming"
	}

	h.logger.Warn("exchange failed", "code", code, "error", err)
	if werr := sw.JSON(eventError, errorBody{Code: code, Message: message}); werr != nil {
		h.logger.Debug("client gone before error event", "error", werr)
	}
}

// sseEvents forwards pipeline progress onto the event stream. Write
// failures are logged and dropped: a vanished client cancels the
// request context, which tears the generation down through its own
// path soon enough.
type sseEvents struct {
	w      *sse.Writer
	frame  *preview.Frame
	logger log.Logger
}

func (e *sseEvents) TurnUpdated(turn transcript.Turn) {
	if err := e.w.JSON(eventTurn, turn); err != nil {
		e.logger.Debug("dropping turn event", "error", err)
	}
}

func (e *sseEvents) ArtifactReady(*artifact.Artifact) {
	document, version := e.frame.Snapshot()
	if err := e.w.JSON(eventPreview, previewPayload{Document: document, Version: version}); err != nil {
		e.logger.Debug("dropping preview event", "error", err)
	}
}

func (e *sseEvents) ArtifactRejected() {
	if err := e.w.JSON(eventRejected, struct{}{}); err != nil {
		e.logger.Debug("dropping rejected event", "error", err)
	}
}

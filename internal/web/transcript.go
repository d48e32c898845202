package web

import (
	"net/http"

	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/pipeline"
	"github.com/easelhq/easel/internal/transcript"
)

// transcriptHandler serves the conversation state endpoints.
type transcriptHandler struct {
	pipe   *pipeline.Pipeline
	logger log.Logger
}

type transcriptPayload struct {
	Turns []transcript.Turn `json:"turns"`
}

// list returns the full transcript, oldest turn first. Clients use it
// to restore the conversation on page load.
func (h *transcriptHandler) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, transcriptPayload{Turns: h.pipe.Turns()}, h.logger)
}

// reset clears the transcript, blanks the preview and drops the active
// artifact. An exchange still in flight fails out on its next
// transcript update; the reset itself always succeeds.
func (h *transcriptHandler) reset(w http.ResponseWriter, _ *http.Request) {
	h.pipe.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"}, h.logger)
}

package web

import (
	"io"
	"net/http"
	"strconv"

	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/preview"
)

// previewHandler serves the current preview document.
type previewHandler struct {
	frame  *preview.Frame
	logger log.Logger
}

// current writes the preview document as a standalone HTML page, with
// the frame version in X-Preview-Version. A blank frame answers 204 so
// clients need no sentinel document.
//
// The document is rendered inside a sandboxed iframe on the client; it
// is never a top-level navigation target.
func (h *previewHandler) current(w http.ResponseWriter, _ *http.Request) {
	document, version := h.frame.Snapshot()
	if document == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Preview-Version", strconv.FormatUint(version, 10))
	if _, err := io.WriteString(w, document); err != nil {
		h.logger.Debug("failed to write preview document", "error", err)
	}
}

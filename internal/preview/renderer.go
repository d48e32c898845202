package preview

import (
	"github.com/easelhq/easel/internal/artifact"
	"github.com/easelhq/easel/internal/log"
)

// Surface is the isolated rendering context. Render replaces the whole
// surface with a new document — no patching, so no state from a previous
// document survives. Reset clears it to blank.
//
// Implementations must isolate the document's script execution from the
// host: no host variables, listeners, or storage are reachable from it.
type Surface interface {
	Render(doc string) error
	Reset() error
}

// Renderer drives a Surface with extracted artifacts.
//
// Note: The zero value is NOT useful - use NewRenderer() to create instances.
type Renderer struct {
	surface Surface
	logger  log.Logger
}

// NewRenderer creates a renderer bound to a surface.
func NewRenderer(surface Surface, logger log.Logger) *Renderer {
	return &Renderer{
		surface: surface,
		logger:  logger,
	}
}

// RenderArtifact assembles and renders the artifact's document.
//
// A nil or markup-less artifact is a no-op: whatever the surface
// currently shows stays up. A valid preview is never partially
// overwritten with garbage. Surface errors are absorbed and logged;
// render failure is not an error the caller can act on.
func (r *Renderer) RenderArtifact(a *artifact.Artifact) {
	if a == nil || a.Markup == "" {
		r.logger.Debug("skipping render, artifact nil or incomplete")
		return
	}

	doc := Document(a)
	if err := r.surface.Render(doc); err != nil {
		r.logger.Error("surface render failed", "error", err, "doc_bytes", len(doc))
		return
	}
	r.logger.Debug("artifact rendered",
		"markup_bytes", len(a.Markup),
		"style_bytes", len(a.Style),
		"behavior_bytes", len(a.Behavior))
}

// Reset clears the surface to blank. Errors are absorbed and logged.
func (r *Renderer) Reset() {
	if err := r.surface.Reset(); err != nil {
		r.logger.Error("surface reset failed", "error", err)
	}
}

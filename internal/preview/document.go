// Package preview turns an extracted artifact into a self-contained
// document and hands it to an isolated rendering surface.
//
// The surface is an injected capability: the core only requires
// wholesale replacement and reset. In the web UI the contract is
// completed by a sandboxed iframe whose document is swapped on every
// render; the server-side Frame holds the document it loads.
package preview

import (
	"strings"

	"github.com/easelhq/easel/internal/artifact"
)

// baseStyle is layered before the artifact's own style so the artifact
// can override it: full-viewport sizing, zero margin, hidden overflow.
const baseStyle = "html,body{margin:0;padding:0;width:100%;height:100%;overflow:hidden}"

// Document assembles the isolated document for an artifact: base reset
// style, then the artifact's style, its markup in the body, and its
// behavior in a script that runs after the markup is attached.
//
// The artifact's code is embedded verbatim; escaping it would corrupt
// it. A literal </script> inside behavior ends the inline script early
// and breaks only the sandboxed document, never the host page.
func Document(a *artifact.Artifact) string {
	var b strings.Builder
	b.Grow(256 + len(a.Markup) + len(a.Style) + len(a.Behavior))

	b.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<style>")
	b.WriteString(baseStyle)
	b.WriteString("</style>\n")
	b.WriteString("<style>")
	b.WriteString(a.Style)
	b.WriteString("</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(a.Markup)
	b.WriteString("\n<script>")
	b.WriteString(a.Behavior)
	b.WriteString("</script>\n</body>\n</html>\n")

	return b.String()
}

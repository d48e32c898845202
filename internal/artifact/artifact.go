// Package artifact defines the generated code bundle and its extraction
// from model response text.
//
// A response may carry at most one artifact, embedded as a fenced JSON
// block. Extraction is a pure function: it never fails loudly, because
// a response without a valid artifact is an ordinary outcome — the raw
// text then stands as the visible reply.
package artifact

// Artifact is the three-part code bundle extracted from a model
// response: markup for the document body, style layered over the base
// reset, and behavior executed after the markup is attached.
//
// Immutable once constructed.
type Artifact struct {
	Markup   string `json:"markup"`
	Style    string `json:"style"`
	Behavior string `json:"behavior"`
}

package preview

import "sync"

// Frame is the server-side Surface backing the web UI. It holds the
// current document and a version counter; the browser client loads the
// document into a sandboxed iframe and swaps the frame wholesale
// whenever the version moves, which discards all script state of the
// previous document.
//
// Thread Safety: all methods are safe for concurrent use.
//
// Note: The zero value is NOT useful - use NewFrame() to create instances.
type Frame struct {
	mu      sync.RWMutex
	doc     string
	version uint64
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

// Render replaces the held document.
func (f *Frame) Render(doc string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = doc
	f.version++
	return nil
}

// Reset clears the held document. The version still advances so clients
// notice the clear.
func (f *Frame) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = ""
	f.version++
	return nil
}

// Snapshot returns the current document and version.
func (f *Frame) Snapshot() (string, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.doc, f.version
}

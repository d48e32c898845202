package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// fenceTag opens a structured block. Only json-tagged fences are
	// considered; plain ``` fences are prose as far as extraction cares.
	fenceTag = "```json"

	// fence closes a block.
	fence = "```"

	// maxBlockBytes caps a candidate block so a hostile response cannot
	// balloon the preview document.
	maxBlockBytes = 1 << 20
)

var (
	errEmptyBlock    = errors.New("fenced block is empty")
	errBlockTooLarge = errors.New("fenced block exceeds size cap")
	errMissingMarkup = errors.New("html field missing or empty")
)

// blockPayload is the model-facing grammar: the fenced JSON object
// carries html/css/js keys. The system instruction in internal/generate
// pins the model to this shape; the two must stay in sync.
type blockPayload struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// Extract locates and parses the artifact embedded in response text.
// It returns nil when the text carries no valid artifact: no fenced
// json block, unterminated block, malformed JSON, or an absent/empty
// html field. Extraction failures are absorbed here so the caller can
// fall back to showing the raw text.
//
// Extract is pure: equal inputs yield field-wise equal artifacts.
func Extract(text string) *Artifact {
	block, ok := findBlock(text)
	if !ok {
		return nil
	}
	a, err := parseBlock(block)
	if err != nil {
		return nil
	}
	return a
}

// findBlock returns the inner content of the first ```json fenced block.
// The block may sit anywhere in the text with prose around it. Later
// blocks are ignored; an opening fence without a closing one yields no
// block. The content is returned raw — validity is the next stage's job.
func findBlock(text string) (string, bool) {
	start := strings.Index(text, fenceTag)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(fenceTag):]
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// parseBlock strictly parses a candidate block into an Artifact.
// Requirements: within the size cap, valid JSON, html present and
// non-empty. css and js are optional and default to "".
func parseBlock(block string) (*Artifact, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil, errEmptyBlock
	}
	if len(block) > maxBlockBytes {
		return nil, fmt.Errorf("%w: %d bytes", errBlockTooLarge, len(block))
	}

	var p blockPayload
	if err := json.Unmarshal([]byte(block), &p); err != nil {
		return nil, fmt.Errorf("parsing block: %w", err)
	}
	if p.HTML == "" {
		return nil, errMissingMarkup
	}

	return &Artifact{
		Markup:   p.HTML,
		Style:    p.CSS,
		Behavior: p.JS,
	}, nil
}

package pipeline

import (
	"github.com/easelhq/easel/internal/artifact"
	"github.com/easelhq/easel/internal/transcript"
)

// Events receives pipeline progress. All callbacks run synchronously on
// the submitting goroutine, in order: the next fragment is not applied
// until the previous TurnUpdated has returned.
//
// TurnUpdated fires for every turn mutation, including finalization.
// Exactly one of ArtifactReady or ArtifactRejected fires per completed
// stream; neither fires for a failed one.
type Events interface {
	TurnUpdated(turn transcript.Turn)
	ArtifactReady(a *artifact.Artifact)
	ArtifactRejected()
}

// nopEvents swallows everything. Used when the caller passes nil.
type nopEvents struct{}

func (nopEvents) TurnUpdated(transcript.Turn) {}

func (nopEvents) ArtifactReady(*artifact.Artifact) {}

func (nopEvents) ArtifactRejected() {}

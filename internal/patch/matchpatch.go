package patch

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MatchPatch is the production Engine backed by diff-match-patch.
//
// Deltas are expected in diff-match-patch patch-text form, the format the
// archive writer emits. The zero value is not usable; call NewMatchPatch.
type MatchPatch struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewMatchPatch creates the diff-match-patch backed engine.
func NewMatchPatch() *MatchPatch {
	return &MatchPatch{dmp: diffmatchpatch.New()}
}

// Diff computes a Myers diff between a and b with semantic cleanup,
// so edits align to word-ish boundaries rather than minimal hunks.
func (m *MatchPatch) Diff(a, b string) []Segment {
	diffs := m.dmp.DiffMain(a, b, false)
	diffs = m.dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		segments = append(segments, Segment{Op: opFromDiff(d.Type), Text: d.Text})
	}
	return segments
}

// Apply decodes delta as patch text and applies it to text.
// Decoding failure is an error; placement failure of individual hunks
// is reported through the per-hunk flags, per the Engine contract.
func (m *MatchPatch) Apply(delta, text string) (string, []bool, error) {
	patches, err := m.dmp.PatchFromText(delta)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode delta: %w", err)
	}

	patched, applied := m.dmp.PatchApply(patches, text)
	return patched, applied, nil
}

func opFromDiff(t diffmatchpatch.Operation) Op {
	switch t {
	case diffmatchpatch.DiffInsert:
		return OpInsert
	case diffmatchpatch.DiffDelete:
		return OpDelete
	default:
		return OpEqual
	}
}

package changeset

import (
	"strings"

	"github.com/fyrsmithlabs/sift/internal/patch"
)

// Diverged reports whether live content differs structurally from the
// newest checkpoint, meaning there are uncommitted edits.
func Diverged(engine patch.Engine, latestSnapshotText, liveText string) bool {
	if latestSnapshotText == liveText {
		return false
	}
	for _, seg := range engine.Diff(latestSnapshotText, liveText) {
		if seg.Op != patch.OpEqual {
			return true
		}
	}
	return false
}

// ExtractInsertions returns only the text inserted between oldState and
// newState, concatenated in original order. Deleted and unchanged spans are
// discarded, so removed content never appears in the output and a reorder
// contributes only its re-inserted half.
func ExtractInsertions(engine patch.Engine, oldState, newState string) string {
	var b strings.Builder
	for _, seg := range engine.Diff(oldState, newState) {
		if seg.Op == patch.OpInsert {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

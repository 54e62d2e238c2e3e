package patch

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPatch_Diff_InsertOnly(t *testing.T) {
	engine := NewMatchPatch()

	segs := engine.Diff("A", "AB")

	var inserted string
	for _, s := range segs {
		if s.Op == OpInsert {
			inserted += s.Text
		}
	}
	assert.Equal(t, "B", inserted)
}

func TestMatchPatch_Diff_DeleteOnly(t *testing.T) {
	engine := NewMatchPatch()

	segs := engine.Diff("AB", "A")

	for _, s := range segs {
		assert.NotEqual(t, OpInsert, s.Op)
	}
}

func TestMatchPatch_Diff_Equal(t *testing.T) {
	engine := NewMatchPatch()

	segs := engine.Diff("same text", "same text")

	require.Len(t, segs, 1)
	assert.Equal(t, OpEqual, segs[0].Op)
	assert.Equal(t, "same text", segs[0].Text)
}

func TestMatchPatch_Apply_RoundTrip(t *testing.T) {
	newer := "Hello World Extra"
	older := "Hello"

	// Reverse delta the way the archive writer produces them.
	dmp := diffmatchpatch.New()
	delta := dmp.PatchToText(dmp.PatchMake(newer, older))

	engine := NewMatchPatch()
	patched, applied, err := engine.Apply(delta, newer)

	require.NoError(t, err)
	for _, ok := range applied {
		assert.True(t, ok)
	}
	assert.Equal(t, older, patched)
}

func TestMatchPatch_Apply_BadDelta(t *testing.T) {
	engine := NewMatchPatch()

	_, _, err := engine.Apply("not a patch", "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode delta")
}

func TestMatchPatch_Apply_EmptyDelta(t *testing.T) {
	engine := NewMatchPatch()

	patched, applied, err := engine.Apply("", "unchanged")

	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, "unchanged", patched)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "equal", OpEqual.String())
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "delete", OpDelete.String())
}

func TestNaiveDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []Segment
	}{
		{
			name: "append",
			a:    "A",
			b:    "AB",
			want: []Segment{{OpEqual, "A"}, {OpInsert, "B"}},
		},
		{
			name: "delete suffix",
			a:    "AB",
			b:    "A",
			want: []Segment{{OpEqual, "A"}, {OpDelete, "B"}},
		},
		{
			name: "replace middle",
			a:    "a-x-b",
			b:    "a-y-b",
			want: []Segment{{OpEqual, "a-"}, {OpDelete, "x"}, {OpInsert, "y"}, {OpEqual, "-b"}},
		},
		{
			name: "identical",
			a:    "same",
			b:    "same",
			want: []Segment{{OpEqual, "same"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NaiveDiff(tt.a, tt.b))
		})
	}
}

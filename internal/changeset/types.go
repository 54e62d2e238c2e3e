package changeset

// Request carries everything a single resolve needs. The archive bytes and
// timestamps come from the host document store; nothing here is mutated.
type Request struct {
	// ArchiveRaw is the raw version-archive container, or nil when the
	// document has no archive.
	ArchiveRaw []byte

	// LiveText is the document's current content, which may be ahead of
	// the newest archived checkpoint.
	LiveText string

	// LiveModifiedMs is the live content's modification time, unix ms.
	LiveModifiedMs int64

	// CreatedAtMs is the document's creation time, unix ms.
	CreatedAtMs int64

	// ThresholdMs is the cutoff: only content added after this instant
	// counts as new.
	ThresholdMs int64

	// HasHeaderBlock tells the normalizer the document may begin with a
	// metadata header block.
	HasHeaderBlock bool
}

// ChangeSet is the result of one resolve. Callers normally only consume
// InsertedText; the two states are exposed for diagnostics and tests.
type ChangeSet struct {
	// ReconstructedAtThreshold is the document state at the threshold.
	ReconstructedAtThreshold string

	// FinalState is the live text when diverged, else the newest
	// checkpoint payload.
	FinalState string

	// InsertedText is the normalized text added between the two states.
	InsertedText string
}

// Package replay reconstructs past document states from a reverse-delta
// archive chain.
//
// The chain is an index-addressed slice of entries, ascending by timestamp,
// whose newest entry is normally a full snapshot. A cursor walks from the
// last index downward, applying each reverse delta (or adopting each interior
// snapshot) until the accumulated state is at or before the requested
// threshold. Reconstruction is best-effort: a delta that does not apply
// cleanly is absorbed with a diagnostic, never a failure.
package replay

// Package changeset computes "new content since a threshold" for a single
// document.
//
// The resolver parses the document's version archive, reconstructs the state
// at the threshold instant, reconciles uncommitted live edits against the
// newest checkpoint, and extracts only inserted text between the two states.
// It is a pure single-shot function of its inputs; callers own any caching.
package changeset

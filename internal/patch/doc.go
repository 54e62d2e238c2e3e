// Package patch defines the diff/patch engine contract used by the
// reconstruction pipeline.
//
// The production engine wraps diff-match-patch (Myers diff with semantic
// cleanup and fuzzy patch application). Any engine satisfying the Engine
// interface is interchangeable; tests inject a deterministic fake.
package patch

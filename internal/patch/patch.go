package patch

// Op classifies a diff segment.
type Op int

const (
	// OpEqual marks text present in both inputs.
	OpEqual Op = iota
	// OpInsert marks text present only in the second input.
	OpInsert
	// OpDelete marks text present only in the first input.
	OpDelete
)

// String returns the op name for logging.
func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Segment is one run of a structural diff, in original order.
type Segment struct {
	Op   Op
	Text string
}

// Engine computes structural diffs and applies encoded deltas.
//
// Implementations must be safe for concurrent use; the reconstruction
// pipeline shares one engine across worker goroutines.
type Engine interface {
	// Diff returns the ordered segments transforming a into b,
	// with trivial-edit cleanup applied.
	Diff(a, b string) []Segment

	// Apply applies an encoded delta to text. The bool slice reports
	// per-hunk success; a false entry means that hunk could not be
	// placed and the returned text is best-effort. A non-nil error
	// means the delta itself could not be decoded.
	Apply(delta, text string) (string, []bool, error)
}

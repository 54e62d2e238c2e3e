package patch

// FakeEngine is a deterministic toy engine for tests. Unset function
// fields fall back to a common-prefix/suffix diff and a delta format that
// is simply the replacement text. Failure injection goes through the
// function fields.
type FakeEngine struct {
	DiffFunc  func(a, b string) []Segment
	ApplyFunc func(delta, text string) (string, []bool, error)
}

// Diff implements Engine.
func (f *FakeEngine) Diff(a, b string) []Segment {
	if f.DiffFunc != nil {
		return f.DiffFunc(a, b)
	}
	return NaiveDiff(a, b)
}

// Apply implements Engine. The default treats the delta as the full
// replacement text with a single successful hunk.
func (f *FakeEngine) Apply(delta, text string) (string, []bool, error) {
	if f.ApplyFunc != nil {
		return f.ApplyFunc(delta, text)
	}
	return delta, []bool{true}, nil
}

// NaiveDiff splits a and b into common prefix, middle, and common suffix.
// Deterministic and order-preserving, which is all the tests need.
func NaiveDiff(a, b string) []Segment {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	var segs []Segment
	if prefix > 0 {
		segs = append(segs, Segment{Op: OpEqual, Text: a[:prefix]})
	}
	if mid := a[prefix : len(a)-suffix]; mid != "" {
		segs = append(segs, Segment{Op: OpDelete, Text: mid})
	}
	if mid := b[prefix : len(b)-suffix]; mid != "" {
		segs = append(segs, Segment{Op: OpInsert, Text: mid})
	}
	if suffix > 0 {
		segs = append(segs, Segment{Op: OpEqual, Text: a[len(a)-suffix:]})
	}
	return segs
}

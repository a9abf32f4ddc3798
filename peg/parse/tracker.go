package parse

// tracker records the farthest offset at which matching failed, and what
// was expected there. It only moves forward: a failure at a farther offset
// replaces the expectations, one at the same offset adds to them.
//
// Every rule evaluation records into a tracker of its own, which is merged
// into the caller's afterwards. What a rule contributes therefore depends
// only on the rule and its offset, and the memo table can replay it.
type tracker struct {
	offset   int
	expected []string
	// quiet suppresses recording while positive, inside negative
	// lookahead and implicit skipping.
	quiet int
}

func newTracker() tracker {
	return tracker{offset: -1}
}

// wants reports whether a failure at offset would be recorded. Callers
// check it before building a label.
func (t *tracker) wants(offset int) bool {
	return t.quiet == 0 && offset >= t.offset
}

func (t *tracker) record(offset int, label string) {
	if t.quiet > 0 || offset < t.offset {
		return
	}
	t.force(offset, label)
}

// force records regardless of quiet.
func (t *tracker) force(offset int, label string) {
	switch {
	case offset < t.offset:
		return
	case offset > t.offset:
		t.offset = offset
		t.expected = t.expected[:0]
	}
	for _, e := range t.expected {
		if e == label {
			return
		}
	}
	t.expected = append(t.expected, label)
}

// fail records the failure of a rule that started at offset. If nothing
// got farther than offset, whatever the rule's body expected is replaced
// by the rule's own label.
func (t *tracker) fail(offset int, label string) {
	if t.quiet > 0 || t.offset > offset {
		return
	}
	t.offset = offset
	t.expected = append(t.expected[:0], label)
}

// merge adds the failures recorded by a finished rule evaluation.
func (t *tracker) merge(o tracker) {
	if t.quiet > 0 {
		return
	}
	for _, label := range o.expected {
		t.force(o.offset, label)
	}
}

func (t *tracker) expectations() []string {
	return append([]string(nil), t.expected...)
}

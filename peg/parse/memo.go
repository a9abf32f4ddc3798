package parse

// memoKey identifies one attempt to match a rule at an offset.
type memoKey struct {
	rule   int
	offset int
}

// memoEntry is the outcome of an attempt. Failed attempts keep end equal
// to the starting offset and no nodes. track holds the failures recorded
// during the attempt, successful or not, so that a hit reports the same
// expectations as evaluating the rule again.
type memoEntry struct {
	end   int
	nodes []*Node
	ok    bool
	track tracker
}

// memoTable caches rule outcomes for the duration of one parse. Each key is
// written at most once.
type memoTable struct {
	entries map[memoKey]memoEntry
}

func newMemoTable() *memoTable {
	return &memoTable{entries: make(map[memoKey]memoEntry)}
}

func (t *memoTable) get(key memoKey) (memoEntry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

func (t *memoTable) put(key memoKey, e memoEntry) {
	if _, exists := t.entries[key]; exists {
		return
	}
	t.entries[key] = e
}

func (t *memoTable) len() int {
	return len(t.entries)
}

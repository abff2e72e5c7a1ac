package substitution

import "strings"

// Entry is a single search → replacement pair.
type Entry struct {
	Search  string
	Replace string
}

// Table is an ordered replacement table. Keys are unique; the first insertion
// of a key wins. A frozen table rejects further additions.
type Table struct {
	entries []Entry
	index   map[string]int
	frozen  bool
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends search → replace. It reports false when search is empty, is
// already present, or the table is frozen.
func (t *Table) Add(search, replace string) bool {
	if t.frozen || search == "" {
		return false
	}
	if _, ok := t.index[search]; ok {
		return false
	}
	t.index[search] = len(t.entries)
	t.entries = append(t.entries, Entry{Search: search, Replace: replace})
	return true
}

// Get returns the replacement for search.
func (t *Table) Get(search string) (string, bool) {
	i, ok := t.index[search]
	if !ok {
		return "", false
	}
	return t.entries[i].Replace, true
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in application order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Freeze makes the table read-only.
func (t *Table) Freeze() { t.frozen = true }

// Frozen reports whether the table is read-only.
func (t *Table) Frozen() bool { return t.frozen }

// Apply replaces every entry in order, each pass operating on the result of
// the previous one.
func (t *Table) Apply(text string) string {
	for _, e := range t.entries {
		if strings.Contains(text, e.Search) {
			text = strings.ReplaceAll(text, e.Search, e.Replace)
		}
	}
	return text
}

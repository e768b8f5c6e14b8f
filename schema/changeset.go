package schema

import "sort"

// ChangeSet is a set of unique, normalized absolute file paths.
// Inserting a path that is already present is a no-op.
type ChangeSet map[string]struct{}

// NewChangeSet returns a change set holding the given paths.
func NewChangeSet(paths ...string) ChangeSet {
	cs := make(ChangeSet, len(paths))
	for _, p := range paths {
		cs.Add(p)
	}
	return cs
}

// Add inserts a path into the set.
func (cs ChangeSet) Add(path string) {
	cs[path] = struct{}{}
}

// Has reports whether the path is a member of the set.
func (cs ChangeSet) Has(path string) bool {
	_, ok := cs[path]
	return ok
}

// Len returns the number of members.
func (cs ChangeSet) Len() int {
	return len(cs)
}

// Sorted returns the members in lexical order.
// Order carries no meaning; sorting only makes output stable.
func (cs ChangeSet) Sorted() []string {
	out := make([]string, 0, len(cs))
	for p := range cs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

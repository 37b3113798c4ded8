// internal/catalog/index.go
package catalog

import "slices"

// KeySet is a set of book keys that remembers insertion order.
type KeySet struct {
	members map[string]struct{}
	order   []string
}

// NewKeySet returns a set holding keys, ignoring duplicates.
func NewKeySet(keys ...string) *KeySet {
	s := &KeySet{members: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key and reports whether it was new.
func (s *KeySet) Add(key string) bool {
	if _, ok := s.members[key]; ok {
		return false
	}
	s.members[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Remove deletes key and reports whether it was present.
func (s *KeySet) Remove(key string) bool {
	if _, ok := s.members[key]; !ok {
		return false
	}
	delete(s.members, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	return true
}

// Contains reports whether key is in the set.
func (s *KeySet) Contains(key string) bool {
	_, ok := s.members[key]
	return ok
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return len(s.order)
}

// Keys returns a copy of the members in insertion order.
func (s *KeySet) Keys() []string {
	return append(make([]string, 0, len(s.order)), s.order...)
}

// Index maps category labels to the set of book keys filed under them.
// Categories are created on first use and never removed.
type Index struct {
	sets   map[string]*KeySet
	labels []string
}

// NewIndex creates an empty category index.
func NewIndex() *Index {
	return &Index{sets: make(map[string]*KeySet)}
}

// Add files key under label, creating the category if needed.
func (ix *Index) Add(label, key string) {
	set, ok := ix.sets[label]
	if !ok {
		set = NewKeySet()
		ix.sets[label] = set
		ix.labels = append(ix.labels, label)
	}
	set.Add(key)
}

// RemoveKey drops key from every category.
func (ix *Index) RemoveKey(key string) {
	for _, set := range ix.sets {
		set.Remove(key)
	}
}

// Keys returns the keys filed under label; unknown labels yield nil.
func (ix *Index) Keys(label string) []string {
	set, ok := ix.sets[label]
	if !ok {
		return nil
	}
	return set.Keys()
}

// Labels returns every category label in creation order.
func (ix *Index) Labels() []string {
	return slices.Clone(ix.labels)
}

// Contains reports whether key is filed under label.
func (ix *Index) Contains(label, key string) bool {
	set, ok := ix.sets[label]
	return ok && set.Contains(key)
}

// Entries returns the full index in creation order.
func (ix *Index) Entries() []CategoryEntry {
	out := make([]CategoryEntry, 0, len(ix.labels))
	for _, label := range ix.labels {
		out = append(out, CategoryEntry{Label: label, Keys: ix.sets[label].Keys()})
	}
	return out
}

// Replace swaps the index contents for entries.
func (ix *Index) Replace(entries []CategoryEntry) {
	ix.sets = make(map[string]*KeySet, len(entries))
	ix.labels = ix.labels[:0]
	for _, e := range entries {
		if _, ok := ix.sets[e.Label]; !ok {
			ix.labels = append(ix.labels, e.Label)
			ix.sets[e.Label] = NewKeySet()
		}
		for _, k := range e.Keys {
			ix.sets[e.Label].Add(k)
		}
	}
}

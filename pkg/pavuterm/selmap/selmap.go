// Package selmap provides an ordered map with a single movable selection cursor.
//
// Keys iterate in ascending order. The selection is tracked by key, so inserting or
// removing other keys never relocates it; only removing the selected key itself
// reassigns the selection, preferring the next larger key and then the next smaller one.
//
// A Map is not safe for concurrent use. Callers share it behind their own lock.
package selmap

import (
	"cmp"
	"iter"
	"slices"
)

// Predicate reports whether an entry is visible to filtered navigation and iteration.
type Predicate[V any] func(V) bool

// Map is a sorted keyed collection with at most one selected key and a dirty flag.
//
// Invariants, held after every exported method returns:
//   - there is no selection if and only if the map is empty
//   - a selected key is always present in the map
type Map[K cmp.Ordered, V any] struct {
	contents map[K]V
	keys     []K // ascending

	selected    K
	hasSelected bool

	changed bool
}

// New returns an empty Map.
func New[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{
		contents: make(map[K]V),
	}
}

// Upsert inserts or replaces the entry for key. The first entry of an empty map becomes
// the selection.
func (m *Map[K, V]) Upsert(key K, value V) {
	if _, ok := m.contents[key]; !ok {
		pos, _ := slices.BinarySearch(m.keys, key)
		m.keys = slices.Insert(m.keys, pos, key)
	}
	m.contents[key] = value

	if !m.hasSelected {
		m.selected = m.keys[0]
		m.hasSelected = true
	}

	m.changed = true
}

// Remove deletes key and reports whether it was present. If key was selected the
// selection moves to the next larger key, else the next smaller key, else it is cleared.
//
// Remove panics if the map holds entries but has no selection.
func (m *Map[K, V]) Remove(key K) bool {
	if len(m.keys) > 0 && !m.hasSelected {
		panic("selmap: no selected entry while removing one")
	}

	pos, found := slices.BinarySearch(m.keys, key)
	if !found {
		return false
	}

	if key == m.selected {
		if next, ok := m.NextKey(key); ok {
			m.selected = next
		} else if prev, ok := m.PrevKey(key); ok {
			m.selected = prev
		} else {
			if len(m.keys) != 1 {
				panic("selmap: no neighbour for selected key in a map with more than one entry")
			}
			var zero K
			m.selected = zero
			m.hasSelected = false
		}
	}

	m.keys = slices.Delete(m.keys, pos, pos+1)
	delete(m.contents, key)
	m.changed = true

	return true
}

// Get returns the entry stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.contents[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// All iterates key/entry pairs in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.contents[k]) {
				return
			}
		}
	}
}

// Values iterates entries in ascending key order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return m.FilteredValues(nil)
}

// FilteredValues iterates, in ascending key order, the entries accepted by pred.
// A nil pred accepts everything.
func (m *Map[K, V]) FilteredValues(pred Predicate[V]) iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, k := range m.keys {
			v := m.contents[k]
			if pred != nil && !pred(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// FilteredLen counts the entries accepted by pred.
func (m *Map[K, V]) FilteredLen(pred Predicate[V]) int {
	n := 0
	for range m.FilteredValues(pred) {
		n++
	}
	return n
}

// NextKey returns the smallest key strictly greater than key.
func (m *Map[K, V]) NextKey(key K) (K, bool) {
	return m.FilteredNextKey(key, nil)
}

// PrevKey returns the largest key strictly less than key.
func (m *Map[K, V]) PrevKey(key K) (K, bool) {
	return m.FilteredPrevKey(key, nil)
}

// FilteredNextKey returns the smallest key strictly greater than key whose entry is
// accepted by pred. key itself need not be present.
func (m *Map[K, V]) FilteredNextKey(key K, pred Predicate[V]) (K, bool) {
	pos, found := slices.BinarySearch(m.keys, key)
	if found {
		pos++
	}
	for ; pos < len(m.keys); pos++ {
		k := m.keys[pos]
		if pred == nil || pred(m.contents[k]) {
			return k, true
		}
	}

	var zero K
	return zero, false
}

// FilteredPrevKey returns the largest key strictly less than key whose entry is
// accepted by pred. key itself need not be present.
func (m *Map[K, V]) FilteredPrevKey(key K, pred Predicate[V]) (K, bool) {
	pos, _ := slices.BinarySearch(m.keys, key)
	for pos--; pos >= 0; pos-- {
		k := m.keys[pos]
		if pred == nil || pred(m.contents[k]) {
			return k, true
		}
	}

	var zero K
	return zero, false
}

// SelectNext moves the selection to the next key. It does nothing at the last key.
func (m *Map[K, V]) SelectNext() {
	m.FilteredSelectNext(nil)
}

// SelectPrev moves the selection to the previous key. It does nothing at the first key.
func (m *Map[K, V]) SelectPrev() {
	m.FilteredSelectPrev(nil)
}

// FilteredSelectNext moves the selection to the next key accepted by pred.
// The current selection does not have to be accepted by pred.
func (m *Map[K, V]) FilteredSelectNext(pred Predicate[V]) {
	if !m.hasSelected {
		return
	}
	if next, ok := m.FilteredNextKey(m.selected, pred); ok {
		m.selected = next
		m.changed = true
	}
}

// FilteredSelectPrev moves the selection to the previous key accepted by pred.
func (m *Map[K, V]) FilteredSelectPrev(pred Predicate[V]) {
	if !m.hasSelected {
		return
	}
	if prev, ok := m.FilteredPrevKey(m.selected, pred); ok {
		m.selected = prev
		m.changed = true
	}
}

// FilteredSelectNextElsePrev moves the selection to the next key accepted by pred or,
// failing that, to the previous one. With no accepted neighbour the selection stays put.
func (m *Map[K, V]) FilteredSelectNextElsePrev(pred Predicate[V]) {
	if !m.hasSelected {
		return
	}
	if next, ok := m.FilteredNextKey(m.selected, pred); ok {
		m.selected = next
		m.changed = true
	} else if prev, ok := m.FilteredPrevKey(m.selected, pred); ok {
		m.selected = prev
		m.changed = true
	}
}

// SelectedKey returns the selected key.
func (m *Map[K, V]) SelectedKey() (K, bool) {
	return m.selected, m.hasSelected
}

// Selected returns the selected entry.
func (m *Map[K, V]) Selected() (V, bool) {
	if !m.hasSelected {
		var zero V
		return zero, false
	}
	return m.mustGet(m.selected), true
}

// UpdateSelected lets fn edit the selected entry in place and stores the result.
// It marks the map changed whenever there is a selection, whether or not fn edits anything.
func (m *Map[K, V]) UpdateSelected(fn func(*V)) bool {
	if !m.hasSelected {
		return false
	}

	v := m.mustGet(m.selected)
	m.changed = true
	fn(&v)
	m.contents[m.selected] = v

	return true
}

// Changed reports the dirty flag without clearing it.
func (m *Map[K, V]) Changed() bool {
	return m.changed
}

// ResetChanged clears the dirty flag and returns its previous value.
func (m *Map[K, V]) ResetChanged() bool {
	t := m.changed
	m.changed = false
	return t
}

func (m *Map[K, V]) mustGet(key K) V {
	v, ok := m.contents[key]
	if !ok {
		panic("selmap: selected key is not in contents")
	}
	return v
}

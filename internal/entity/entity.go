// Package entity provides a normalized, immutable id -> record collection
// with an explicit ordering that is re-sorted after every mutation.
package entity

import (
	"maps"
	"slices"
)

// State is a normalized collection. IDs and Entities are a bijection: every
// id in IDs has exactly one entry in Entities and vice versa.
//
// State values are treated as immutable. Operations on an Adapter return a
// new State and never write through the receiver's slice or map.
type State[T any] struct {
	IDs      []string
	Entities map[string]T

	// Revision increases on every operation that changes the collection.
	// A no-op returns the input unchanged, revision included.
	Revision uint64
}

// Len returns the number of records.
func (s State[T]) Len() int { return len(s.IDs) }

// Get returns the record stored under id.
func (s State[T]) Get(id string) (T, bool) {
	v, ok := s.Entities[id]
	return v, ok
}

// Has reports whether id is present.
func (s State[T]) Has(id string) bool {
	_, ok := s.Entities[id]
	return ok
}

// All returns the records in order. The returned slice is freshly allocated.
func (s State[T]) All() []T {
	out := make([]T, 0, len(s.IDs))
	for _, id := range s.IDs {
		out = append(out, s.Entities[id])
	}
	return out
}

// Adapter holds the id selector and comparator for one record type.
type Adapter[T any] struct {
	selectID func(T) string
	compare  func(a, b T) int
}

// NewAdapter returns an Adapter. compare may be nil, in which case insertion
// order is kept.
func NewAdapter[T any](selectID func(T) string, compare func(a, b T) int) *Adapter[T] {
	return &Adapter[T]{selectID: selectID, compare: compare}
}

// SelectID returns the id of rec.
func (a *Adapter[T]) SelectID(rec T) string { return a.selectID(rec) }

// InitialState returns an empty collection.
func (a *Adapter[T]) InitialState() State[T] {
	return State[T]{IDs: []string{}, Entities: map[string]T{}}
}

// SetAll replaces the whole collection with records. Later duplicates of
// the same id overwrite earlier ones.
func (a *Adapter[T]) SetAll(s State[T], records []T) State[T] {
	entities := make(map[string]T, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		id := a.selectID(rec)
		if _, dup := entities[id]; !dup {
			ids = append(ids, id)
		}
		entities[id] = rec
	}
	return a.finish(s, ids, entities)
}

// AddOne inserts rec. If its id is already present the state is returned
// unchanged.
func (a *Adapter[T]) AddOne(s State[T], rec T) State[T] {
	id := a.selectID(rec)
	if s.Has(id) {
		return s
	}
	entities := maps.Clone(s.Entities)
	if entities == nil {
		entities = map[string]T{}
	}
	entities[id] = rec
	ids := append(slices.Clone(s.IDs), id)
	return a.finish(s, ids, entities)
}

// UpdateOne replaces the record under id with apply(current). If id is not
// present the state is returned unchanged. apply must not change the id.
func (a *Adapter[T]) UpdateOne(s State[T], id string, apply func(T) T) State[T] {
	cur, ok := s.Entities[id]
	if !ok {
		return s
	}
	entities := maps.Clone(s.Entities)
	entities[id] = apply(cur)
	return a.finish(s, slices.Clone(s.IDs), entities)
}

// RemoveOne deletes id from both the mapping and the ordering. Removing an
// absent id is a no-op.
func (a *Adapter[T]) RemoveOne(s State[T], id string) State[T] {
	if !s.Has(id) {
		return s
	}
	entities := maps.Clone(s.Entities)
	delete(entities, id)
	ids := slices.DeleteFunc(slices.Clone(s.IDs), func(v string) bool { return v == id })
	return a.finish(s, ids, entities)
}

// RemoveAll empties the collection. An already empty state is returned
// unchanged.
func (a *Adapter[T]) RemoveAll(s State[T]) State[T] {
	if len(s.IDs) == 0 && len(s.Entities) == 0 && s.IDs != nil {
		return s
	}
	return a.finish(s, []string{}, map[string]T{})
}

// finish sorts ids with the comparator and bumps the revision.
func (a *Adapter[T]) finish(prev State[T], ids []string, entities map[string]T) State[T] {
	if a.compare != nil {
		slices.SortStableFunc(ids, func(x, y string) int {
			return a.compare(entities[x], entities[y])
		})
	}
	return State[T]{
		IDs:      ids,
		Entities: entities,
		Revision: prev.Revision + 1,
	}
}

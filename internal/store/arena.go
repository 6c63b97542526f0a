package store

import (
	"sort"
	"time"
)

// Arena is the in-memory form of a loaded document: records in stored order
// plus an index from natural key to position.
type Arena[R any] struct {
	schema *Schema[R]
	items  []R
	index  map[string]int
	lastID int
	now    time.Time
}

func newArena[R any](schema *Schema[R], now time.Time) *Arena[R] {
	return &Arena[R]{schema: schema, index: make(map[string]int), now: now}
}

// Len returns the number of records.
func (a *Arena[R]) Len() int { return len(a.items) }

// Get returns the record stored under key.
func (a *Arena[R]) Get(key string) (R, bool) {
	idx, ok := a.index[key]
	if !ok {
		var zero R
		return zero, false
	}
	return a.items[idx], true
}

// Each calls fn with a pointer to every record in stored order. Changing key
// fields through the pointer is not supported.
func (a *Arena[R]) Each(fn func(*R)) {
	for i := range a.items {
		fn(&a.items[i])
	}
}

// Sorted returns a copy of the records ordered by the schema.
func (a *Arena[R]) Sorted() []R {
	out := make([]R, len(a.items))
	copy(out, a.items)
	if a.schema.Less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return a.schema.Less(&out[i], &out[j])
		})
	}
	return out
}

// Upsert inserts r or replaces the record sharing its key. The id and any
// fields preserved by Stamp survive a replace.
func (a *Arena[R]) Upsert(r R) (UpsertResult, error) {
	if a.schema.Validate != nil {
		if err := a.schema.Validate(&r); err != nil {
			return UpsertResult{Key: a.schema.Key(&r)}, err
		}
	}
	key := a.schema.Key(&r)

	if idx, ok := a.index[key]; ok {
		prev := a.items[idx]
		if a.schema.hasID() {
			a.schema.SetID(&r, a.schema.ID(&prev))
		}
		if a.schema.Stamp != nil {
			a.schema.Stamp(&r, &prev, a.now)
		}
		a.items[idx] = r
		return UpsertResult{ID: a.idOf(&r), Key: key, Changes: 1}, nil
	}

	if a.schema.hasID() {
		a.lastID++
		a.schema.SetID(&r, a.lastID)
	}
	if a.schema.Stamp != nil {
		a.schema.Stamp(&r, nil, a.now)
	}
	a.index[key] = len(a.items)
	a.items = append(a.items, r)
	return UpsertResult{ID: a.idOf(&r), Key: key, Inserted: true, Changes: 1}, nil
}

// Put stores r as given, replacing any record with the same key. Records
// without an id receive the next one; store-managed fields are left alone.
func (a *Arena[R]) Put(r R) {
	if a.schema.hasID() {
		id := a.schema.ID(&r)
		if id <= 0 {
			a.lastID++
			a.schema.SetID(&r, a.lastID)
		} else if id > a.lastID {
			a.lastID = id
		}
	}
	key := a.schema.Key(&r)
	if idx, ok := a.index[key]; ok {
		a.items[idx] = r
		return
	}
	a.index[key] = len(a.items)
	a.items = append(a.items, r)
}

// Remove deletes every record matching pred and returns how many went.
func (a *Arena[R]) Remove(pred func(*R) bool) int {
	kept := a.items[:0]
	removed := 0
	for i := range a.items {
		if pred(&a.items[i]) {
			removed++
			continue
		}
		kept = append(kept, a.items[i])
	}
	var zero R
	for i := len(kept); i < len(a.items); i++ {
		a.items[i] = zero
	}
	a.items = kept
	if removed > 0 {
		a.reindex()
	}
	return removed
}

// Reset drops every record. The id high-water mark is kept.
func (a *Arena[R]) Reset() {
	a.items = nil
	a.index = make(map[string]int)
}

func (a *Arena[R]) reindex() {
	a.index = make(map[string]int, len(a.items))
	for i := range a.items {
		a.index[a.schema.Key(&a.items[i])] = i
	}
}

func (a *Arena[R]) idOf(r *R) int {
	if !a.schema.hasID() {
		return 0
	}
	return a.schema.ID(r)
}

// fill loads decoded records, keeping the last record of a duplicated key.
func (a *Arena[R]) fill(records []R, lastID int) {
	a.lastID = lastID
	for _, r := range records {
		a.Put(r)
	}
}

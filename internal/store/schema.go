package store

import (
	"errors"
	"time"
)

// Schema describes one record collection.
type Schema[R any] struct {
	// Name identifies the store in logs.
	Name string
	// Collection is the JSON array key inside the document.
	Collection string
	// Key returns the natural key. Missing components are empty strings.
	Key func(*R) string
	// Less orders All and Filter results. Nil keeps insertion order.
	Less func(a, b *R) bool
	// ID and SetID expose a surrogate id. Both nil disables id assignment.
	ID    func(*R) int
	SetID func(*R, int)
	// Stamp maintains store-managed fields. prev is nil on insert.
	Stamp func(r, prev *R, now time.Time)
	// Validate rejects a record before it is applied. Nil accepts everything.
	Validate func(*R) error
}

func (s Schema[R]) check() error {
	if s.Collection == "" {
		return errors.New("schema collection name is required")
	}
	if s.Collection == "metadata" {
		return errors.New("schema collection cannot be named metadata")
	}
	if s.Key == nil {
		return errors.New("schema key function is required")
	}
	if (s.ID == nil) != (s.SetID == nil) {
		return errors.New("schema ID and SetID must be set together")
	}
	return nil
}

func (s Schema[R]) hasID() bool {
	return s.ID != nil && s.SetID != nil
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrWrite marks a failure to persist the document. The in-flight operation
// was aborted and nothing was written.
var ErrWrite = errors.New("store write failed")

// RecordError reports a single record of a batch that could not be applied.
// Sibling records are unaffected.
type RecordError struct {
	Index int
	Key   string
	Err   error
}

func (e *RecordError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("record %d (key %q): %v", e.Index, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MarshalJSON renders the error message instead of the opaque error value.
func (e RecordError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Index int    `json:"index"`
		Key   string `json:"key"`
		Error string `json:"error"`
	}{e.Index, e.Key, msg})
}

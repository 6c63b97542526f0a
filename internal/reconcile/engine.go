package reconcile

import (
	"encoding/json"
	"log/slog"

	"prodledger/internal/logging"
	"prodledger/internal/store"
)

// Change is an updated record with its previous version.
type Change[R any] struct {
	Old    R        `json:"old"`
	New    R        `json:"new"`
	Fields []string `json:"fields"`
}

// Failure is an incoming record that could not be applied.
type Failure[R any] struct {
	Record R
	Err    error
}

// MarshalJSON renders the error message instead of the opaque error value.
func (f Failure[R]) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Record R      `json:"record"`
		Error  string `json:"error"`
	}{f.Record, msg})
}

// Result classifies every incoming record.
type Result[R any] struct {
	Added     []R          `json:"added"`
	Updated   []Change[R]  `json:"updated"`
	Unchanged []R          `json:"unchanged"`
	Errors    []Failure[R] `json:"errors"`
}

type decisionKind int

const (
	decideAdd decisionKind = iota
	decideUpdate
)

type decision struct {
	kind decisionKind
	pos  int // index into Added or Updated
}

// Plan classifies incoming against existing without touching storage.
func Plan[R any](existing, incoming []R, key func(*R) string, fields FieldSet[R]) Result[R] {
	index := make(map[string]R, len(existing))
	for i := range existing {
		index[key(&existing[i])] = existing[i]
	}
	res, _ := classify(incoming, key, fields, func(k string) (R, bool) {
		r, ok := index[k]
		return r, ok
	})
	return res
}

// classify walks incoming in order. A key seen earlier in the batch is
// compared against that earlier incoming record.
func classify[R any](incoming []R, key func(*R) string, fields FieldSet[R], lookup func(string) (R, bool)) (Result[R], []decision) {
	res := Result[R]{
		Added:     []R{},
		Updated:   []Change[R]{},
		Unchanged: []R{},
		Errors:    []Failure[R]{},
	}
	pending := make(map[string]R)
	decisions := make([]decision, 0, len(incoming))

	for i := range incoming {
		rec := incoming[i]
		k := key(&rec)

		current, ok := pending[k]
		if !ok {
			current, ok = lookup(k)
		}
		switch {
		case !ok:
			decisions = append(decisions, decision{kind: decideAdd, pos: len(res.Added)})
			res.Added = append(res.Added, rec)
			pending[k] = rec
		default:
			changed := Diff(&current, &rec, fields)
			if len(changed) == 0 {
				res.Unchanged = append(res.Unchanged, current)
				continue
			}
			decisions = append(decisions, decision{kind: decideUpdate, pos: len(res.Updated)})
			res.Updated = append(res.Updated, Change[R]{Old: current, New: rec, Fields: changed})
			pending[k] = rec
		}
	}
	return res, decisions
}

// Backend is the store surface the engine needs.
type Backend[R any] interface {
	Schema() store.Schema[R]
	Update(func(*store.Arena[R]) (bool, error)) error
}

// Engine reconciles batches of R against a store.
type Engine[R any] struct {
	backend Backend[R]
	fields  FieldSet[R]
	logger  *slog.Logger
}

// New returns an engine comparing fields.
func New[R any](backend Backend[R], fields FieldSet[R], logger *slog.Logger) *Engine[R] {
	return &Engine[R]{
		backend: backend,
		fields:  fields,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Fields returns the compared field set.
func (e *Engine[R]) Fields() FieldSet[R] { return e.fields }

// CompareAndUpdate loads the store once, classifies incoming, and writes
// added and updated records in one batch. Old and New in each Change are the
// stored versions before and after that record was applied. Nothing is written when every
// record is unchanged. A record that fails to apply moves to Errors while
// the rest of the batch continues.
func (e *Engine[R]) CompareAndUpdate(incoming []R) (Result[R], error) {
	schema := e.backend.Schema()
	var res Result[R]

	err := e.backend.Update(func(a *store.Arena[R]) (bool, error) {
		var decisions []decision
		res, decisions = classify(incoming, schema.Key, e.fields, a.Get)
		if len(decisions) == 0 {
			return false, nil
		}

		// Apply in order and read each record back right away, so a key
		// repeated in the batch reports the state it actually replaced.
		added := make([]R, 0, len(res.Added))
		updated := make([]Change[R], 0, len(res.Updated))
		wrote := false
		for i, d := range decisions {
			rec := res.Added[d.pos]
			if d.kind == decideUpdate {
				rec = res.Updated[d.pos].New
			}
			k := schema.Key(&rec)
			prev, had := a.Get(k)

			ur, err := a.Upsert(rec)
			if err != nil {
				res.Errors = append(res.Errors, Failure[R]{Record: rec, Err: &store.RecordError{Index: i, Key: ur.Key, Err: err}})
				continue
			}
			wrote = true
			stored, _ := a.Get(k)
			if !had || ur.Inserted {
				added = append(added, stored)
				continue
			}
			changed := Diff(&prev, &stored, e.fields)
			if len(changed) == 0 {
				res.Unchanged = append(res.Unchanged, stored)
				continue
			}
			updated = append(updated, Change[R]{Old: prev, New: stored, Fields: changed})
		}
		res.Added = added
		res.Updated = updated
		return wrote, nil
	})
	if err != nil {
		return Result[R]{}, err
	}

	e.logger.Info("batch reconciled",
		logging.String(logging.FieldEventType, "reconcile_complete"),
		logging.Int("added", len(res.Added)),
		logging.Int("updated", len(res.Updated)),
		logging.Int("unchanged", len(res.Unchanged)),
		logging.Int("failed", len(res.Errors)))
	if len(res.Errors) > 0 {
		logging.WarnWithContext(e.logger, "some records were not applied", "reconcile_record_errors",
			logging.Int("failed", len(res.Errors)),
			logging.String(logging.FieldImpact, "failed records keep their previous stored values"))
	}
	return res, nil
}

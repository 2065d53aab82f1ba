// Package memjournal provides an ephemeral, thread-safe, in-memory
// implementation of the journal.Journal interface.
//
// # Purpose
//
// It backs dry runs, tests, and deployments against a simulated network,
// where nothing outlives the process anyway.
//
// # Concurrency Model
//
// Entries live in a sync.Map keyed by action id. Each value is an immutable
// *journal.Entry; a write computes the next entry and swaps it in with
// CompareAndSwap (or LoadOrStore for the first write), retrying when another
// goroutine got there first. Writes to different actions never contend, and
// two goroutines racing to complete the same action cannot both win.
package memjournal

import (
	"context"
	"sync"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/journal"
)

// Journal is an in-memory journal.Journal.
type Journal struct {
	entries sync.Map // Key: action id string, Value: *journal.Entry
}

var _ journal.Journal = (*Journal)(nil)

// New creates a new, empty in-memory journal.
func New() *Journal {
	return &Journal{}
}

// Lookup returns the entry of id.
func (j *Journal) Lookup(ctx context.Context, id actionid.ID) (journal.Entry, error) {
	v, ok := j.entries.Load(id.String())
	if !ok {
		return journal.Entry{}, journal.ErrNotFound
	}
	return *v.(*journal.Entry), nil
}

// RecordStart marks id in flight.
func (j *Journal) RecordStart(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(rec, journal.ApplyStart)
}

// RecordCompletion moves an in-flight entry to completed.
func (j *Journal) RecordCompletion(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(rec, journal.ApplyCompletion)
}

// RecordFailure marks id failed.
func (j *Journal) RecordFailure(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(rec, journal.ApplyFailure)
}

// Entries returns a sorted snapshot.
func (j *Journal) Entries(ctx context.Context) ([]journal.Entry, error) {
	var out []journal.Entry
	j.entries.Range(func(_, v any) bool {
		out = append(out, *v.(*journal.Entry))
		return true
	})
	journal.SortEntries(out)
	return out, nil
}

// Close is a no-op.
func (j *Journal) Close() error { return nil }

func (j *Journal) update(rec journal.Record, apply func(*journal.Entry, journal.Record) (journal.Entry, error)) (journal.Entry, error) {
	key := rec.ID.String()
	for {
		v, loaded := j.entries.Load(key)
		var cur *journal.Entry
		if loaded {
			cur = v.(*journal.Entry)
		}
		next, err := apply(cur, rec)
		if err != nil {
			return journal.Entry{}, err
		}
		if !loaded {
			if _, raced := j.entries.LoadOrStore(key, &next); !raced {
				return next, nil
			}
			continue
		}
		if j.entries.CompareAndSwap(key, cur, &next) {
			return next, nil
		}
	}
}

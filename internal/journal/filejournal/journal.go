// Package filejournal persists the journal as an append-only JSON Lines
// file. Every write appends the full new entry and fsyncs before returning,
// so a record the executor was told about survives a crash. Opening the file
// replays it; the last line for an action wins.
//
// A trailing line without its newline is the signature of a crash mid-write
// and is truncated away on open. Any other unreadable line is corruption.
package filejournal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/journal"
)

// Journal is a journal.Journal backed by a JSONL file.
type Journal struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	entries map[string]*journal.Entry
	lines   int
	closed  bool

	// write appends to file; replaced in tests to fail mid-record.
	write func([]byte) (int, error)
}

var _ journal.Journal = (*Journal)(nil)

// Open opens or creates the journal at path and replays it.
func Open(ctx context.Context, path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := &Journal{path: path, file: f, entries: make(map[string]*journal.Entry)}
	j.write = f.Write
	if err := j.replay(ctx); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking journal: %w", err)
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

func (j *Journal) replay(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	r := bufio.NewReader(j.file)
	var offset int64
	lineNo := 0
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil
			}
			// A line without a newline was never fully written.
			logger.Warn("Truncating torn journal record.", "path", j.path, "line", lineNo+1, "bytes", len(line))
			if terr := j.file.Truncate(offset); terr != nil {
				return fmt.Errorf("truncating torn journal record: %w", terr)
			}
			return j.file.Sync()
		}
		if err != nil {
			return fmt.Errorf("reading journal: %w", err)
		}
		lineNo++
		offset += int64(len(line))
		location := fmt.Sprintf("%s:%d", j.path, lineNo)

		var e journal.Entry
		if uerr := json.Unmarshal(line, &e); uerr != nil {
			return &journal.JournalCorruptionError{Location: location, Reason: "malformed record", Err: uerr}
		}
		if verr := journal.Validate(e, location); verr != nil {
			return verr
		}
		if prev, ok := j.entries[e.ActionID]; ok && prev.Status == journal.StatusCompleted {
			return &journal.JournalCorruptionError{Location: location, ActionID: e.ActionID, Reason: "record after completion"}
		}
		entry := e
		j.entries[e.ActionID] = &entry
		j.lines++
	}
}

// Lookup returns the entry of id.
func (j *Journal) Lookup(ctx context.Context, id actionid.ID) (journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id.String()]
	if !ok {
		return journal.Entry{}, journal.ErrNotFound
	}
	return *e, nil
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
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]journal.Entry, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, *e)
	}
	journal.SortEntries(out)
	return out, nil
}

func (j *Journal) update(rec journal.Record, apply func(*journal.Entry, journal.Record) (journal.Entry, error)) (journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return journal.Entry{}, errors.New("journal is closed")
	}
	key := rec.ID.String()
	next, err := apply(j.entries[key], rec)
	if err != nil {
		return journal.Entry{}, err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("encoding journal record: %w", err)
	}
	data = append(data, '\n')
	offset, err := j.file.Seek(0, io.SeekEnd)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("seeking journal: %w", err)
	}
	if _, err := j.write(data); err != nil {
		return journal.Entry{}, j.rollback(offset, fmt.Errorf("writing journal record: %w", err))
	}
	if err := j.file.Sync(); err != nil {
		return journal.Entry{}, j.rollback(offset, fmt.Errorf("syncing journal: %w", err))
	}
	j.entries[key] = &next
	j.lines++
	return next, nil
}

// rollback cuts the file back to offset so a partly written record does not
// end up in the middle of the log once the next one is appended.
func (j *Journal) rollback(offset int64, cause error) error {
	if err := j.file.Truncate(offset); err != nil {
		return errors.Join(cause, fmt.Errorf("truncating torn journal record: %w", err))
	}
	if _, err := j.file.Seek(offset, io.SeekStart); err != nil {
		return errors.Join(cause, fmt.Errorf("seeking journal: %w", err))
	}
	return cause
}

// Compact rewrites the file with one line per action. The new file is
// synced and renamed over the old one, so a crash leaves either version.
func (j *Journal) Compact(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return errors.New("journal is closed")
	}
	if j.lines == len(j.entries) {
		return nil
	}

	entries := make([]journal.Entry, 0, len(j.entries))
	for _, e := range j.entries {
		entries = append(entries, *e)
	}
	journal.SortEntries(entries)

	tmp, err := os.CreateTemp(filepath.Dir(j.path), filepath.Base(j.path)+".compact-*")
	if err != nil {
		return fmt.Errorf("creating compacted journal: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			cleanup()
			return fmt.Errorf("encoding compacted journal: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("writing compacted journal: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing compacted journal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing compacted journal: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing journal: %w", err)
	}
	syncDir(filepath.Dir(j.path))

	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reopening journal: %w", err)
	}
	j.file.Close()
	j.file = f
	j.write = f.Write
	before := j.lines
	j.lines = len(entries)
	ctxlog.FromContext(ctx).Info("Compacted journal.", "path", j.path, "records_before", before, "records_after", j.lines)
	return nil
}

// Close syncs and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// syncDir makes a rename durable. Not every platform can fsync a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}

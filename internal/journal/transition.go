package journal

import (
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/deploygrid/internal/actionid"
)

// Now is the clock used for UpdatedAt. Tests may replace it.
var Now = func() time.Time { return time.Now().UTC() }

// ApplyStart returns the entry after RecordStart. cur is nil when there is
// no entry yet. Starting an in-flight entry again is allowed: it happens when
// a resumed run found no receipt for the earlier submission.
func ApplyStart(cur *Entry, rec Record) (Entry, error) {
	if cur != nil && cur.Status == StatusCompleted {
		return Entry{}, fmt.Errorf("start %s: %w", rec.ID, ErrAlreadyCompleted)
	}
	next := base(cur, rec)
	next.Status = StatusInFlight
	next.Error = ""
	next.Attempts++
	return next, nil
}

// ApplyCompletion returns the entry after RecordCompletion.
func ApplyCompletion(cur *Entry, rec Record) (Entry, error) {
	if cur == nil {
		return Entry{}, fmt.Errorf("complete %s: %w", rec.ID, ErrNotInFlight)
	}
	switch cur.Status {
	case StatusCompleted:
		return Entry{}, fmt.Errorf("complete %s: %w", rec.ID, ErrAlreadyCompleted)
	case StatusInFlight:
	default:
		return Entry{}, fmt.Errorf("complete %s (status %s): %w", rec.ID, cur.Status, ErrNotInFlight)
	}
	if rec.ID.Kind == actionid.KindDeploy && rec.Result == "" {
		return Entry{}, fmt.Errorf("complete %s: a deploy needs a result address", rec.ID)
	}
	next := base(cur, rec)
	next.Status = StatusCompleted
	next.Result = rec.Result
	next.ReceiptRef = rec.ReceiptRef
	next.Error = ""
	return next, nil
}

// ApplyFailure returns the entry after RecordFailure. A failure may be
// recorded without a prior start, for errors raised before submission.
func ApplyFailure(cur *Entry, rec Record) (Entry, error) {
	if cur != nil && cur.Status == StatusCompleted {
		return Entry{}, fmt.Errorf("fail %s: %w", rec.ID, ErrAlreadyCompleted)
	}
	next := base(cur, rec)
	next.Status = StatusFailed
	next.Error = rec.Error
	return next, nil
}

func base(cur *Entry, rec Record) Entry {
	var next Entry
	if cur != nil {
		next = *cur
	}
	next.ActionID = rec.ID.String()
	if rec.ID.Kind != "" {
		next.Kind = rec.ID.Kind
	}
	next.CorrelationKey = rec.ID.CorrelationKey()
	if rec.RunID != "" {
		next.RunID = rec.RunID
	}
	next.UpdatedAt = Now()
	return next
}

// Validate checks an entry read back from storage.
func Validate(e Entry, location string) error {
	corrupt := func(reason string) error {
		return &JournalCorruptionError{Location: location, ActionID: e.ActionID, Reason: reason}
	}
	if _, err := actionid.Parse(e.ActionID); err != nil {
		return &JournalCorruptionError{Location: location, ActionID: e.ActionID, Reason: "invalid action id", Err: err}
	}
	switch e.Status {
	case StatusInFlight, StatusCompleted, StatusFailed:
	default:
		return corrupt(fmt.Sprintf("unknown status %q", e.Status))
	}
	if e.Kind != "" && !e.Kind.Valid() {
		return corrupt(fmt.Sprintf("unknown kind %q", e.Kind))
	}
	if e.Status == StatusCompleted && e.Kind == actionid.KindDeploy && e.Result == "" {
		return corrupt("completed deploy has no result")
	}
	return nil
}

// SortEntries orders entries by action id.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ActionID < entries[j].ActionID })
}

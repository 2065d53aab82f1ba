package journal

import (
	"context"
	"time"

	"github.com/specialistvlad/deploygrid/internal/actionid"
)

// Status is the persisted state of an action.
type Status string

const (
	// StatusInFlight means a submission may have been made but was not
	// confirmed.
	StatusInFlight Status = "inflight"
	// StatusCompleted means the network confirmed the action. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed means the last attempt failed. A later run may retry.
	StatusFailed Status = "failed"
)

// Entry is the persisted record of one action.
type Entry struct {
	ActionID       string        `json:"action_id"`
	Status         Status        `json:"status"`
	Kind           actionid.Kind `json:"kind"`
	Result         string        `json:"result,omitempty"`
	ReceiptRef     string        `json:"receipt_ref,omitempty"`
	CorrelationKey string        `json:"correlation_key"`
	Error          string        `json:"error,omitempty"`
	RunID          string        `json:"run_id"`
	Attempts       int           `json:"attempts"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Record carries the data of one journal write.
type Record struct {
	ID    actionid.ID
	RunID string
	// Result is the deployed address or call return value (completion only).
	Result string
	// ReceiptRef points at the network receipt (completion only).
	ReceiptRef string
	// Error describes the failure (failure only).
	Error string
}

// Journal is the persisted map of action id to entry. Implementations must
// be safe for concurrent use.
type Journal interface {
	// Lookup returns the entry of id, or ErrNotFound.
	Lookup(ctx context.Context, id actionid.ID) (Entry, error)
	// RecordStart marks id in flight before it is submitted.
	RecordStart(ctx context.Context, rec Record) (Entry, error)
	// RecordCompletion moves an in-flight entry to completed.
	RecordCompletion(ctx context.Context, rec Record) (Entry, error)
	// RecordFailure marks id failed.
	RecordFailure(ctx context.Context, rec Record) (Entry, error)
	// Entries returns a snapshot of all entries sorted by action id.
	Entries(ctx context.Context) ([]Entry, error)
	// Close releases the backend.
	Close() error
}

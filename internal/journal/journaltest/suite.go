// Package journaltest holds the behaviour every journal backend must share.
// Backend packages call Run from their own tests.
package journaltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty journal. Cleanup is the caller's business.
type Factory func(t *testing.T) journal.Journal

// DeployID returns a deploy action id in module "Suite".
func DeployID(tag string) actionid.ID {
	return actionid.ID{Module: "Suite", Kind: actionid.KindDeploy, Tag: tag}
}

// CallID returns a call action id in module "Suite".
func CallID(tag string) actionid.ID {
	return actionid.ID{Module: "Suite", Kind: actionid.KindCall, Tag: tag}
}

// Run executes the shared suite against the backend built by open.
func Run(t *testing.T, open Factory) {
	t.Run("lookup of unknown action", func(t *testing.T) {
		j := open(t)
		_, err := j.Lookup(context.Background(), DeployID("Missing"))
		assert.ErrorIs(t, err, journal.ErrNotFound)
	})

	t.Run("start then complete", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		id := DeployID("Router")

		started, err := j.RecordStart(ctx, journal.Record{ID: id, RunID: "run-1"})
		require.NoError(t, err)
		assert.Equal(t, journal.StatusInFlight, started.Status)

		got, err := j.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, journal.StatusInFlight, got.Status)
		assert.Equal(t, id.CorrelationKey(), got.CorrelationKey)

		_, err = j.RecordCompletion(ctx, journal.Record{ID: id, RunID: "run-1", Result: "0xaa", ReceiptRef: "0xr"})
		require.NoError(t, err)

		got, err = j.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, journal.StatusCompleted, got.Status)
		assert.Equal(t, "0xaa", got.Result)
		assert.Equal(t, "0xr", got.ReceiptRef)
		assert.Equal(t, actionid.KindDeploy, got.Kind)
	})

	t.Run("completed entries are immutable", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		id := DeployID("Pool")
		_, err := j.RecordStart(ctx, journal.Record{ID: id})
		require.NoError(t, err)
		_, err = j.RecordCompletion(ctx, journal.Record{ID: id, Result: "0x01"})
		require.NoError(t, err)

		_, err = j.RecordStart(ctx, journal.Record{ID: id})
		assert.ErrorIs(t, err, journal.ErrAlreadyCompleted)
		_, err = j.RecordCompletion(ctx, journal.Record{ID: id, Result: "0x02"})
		assert.ErrorIs(t, err, journal.ErrAlreadyCompleted)
		_, err = j.RecordFailure(ctx, journal.Record{ID: id, Error: "late"})
		assert.ErrorIs(t, err, journal.ErrAlreadyCompleted)

		got, err := j.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "0x01", got.Result)
	})

	t.Run("completion requires a start", func(t *testing.T) {
		j := open(t)
		_, err := j.RecordCompletion(context.Background(), journal.Record{ID: CallID("init"), Result: "0x"})
		assert.ErrorIs(t, err, journal.ErrNotInFlight)
	})

	t.Run("failed entries can be retried", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		id := CallID("configure")
		_, err := j.RecordStart(ctx, journal.Record{ID: id, RunID: "run-1"})
		require.NoError(t, err)
		_, err = j.RecordFailure(ctx, journal.Record{ID: id, RunID: "run-1", Error: "reverted"})
		require.NoError(t, err)

		got, err := j.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, journal.StatusFailed, got.Status)
		assert.Equal(t, "reverted", got.Error)

		retried, err := j.RecordStart(ctx, journal.Record{ID: id, RunID: "run-2"})
		require.NoError(t, err)
		assert.Equal(t, 2, retried.Attempts)
		assert.Empty(t, retried.Error)
		assert.Equal(t, "run-2", retried.RunID)
	})

	t.Run("entries are sorted", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		for _, tag := range []string{"C", "A", "B"} {
			_, err := j.RecordStart(ctx, journal.Record{ID: DeployID(tag)})
			require.NoError(t, err)
		}
		entries, err := j.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "Suite#A", entries[0].ActionID)
		assert.Equal(t, "Suite#B", entries[1].ActionID)
		assert.Equal(t, "Suite#C", entries[2].ActionID)
	})

	t.Run("concurrent completions have one winner", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		id := DeployID("Contended")
		_, err := j.RecordStart(ctx, journal.Record{ID: id})
		require.NoError(t, err)

		const workers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result := fmt.Sprintf("0x%02x", i+1)
				_, err := j.RecordCompletion(ctx, journal.Record{ID: id, Result: result})
				if err == nil {
					mu.Lock()
					winners = append(winners, result)
					mu.Unlock()
					return
				}
				assert.True(t, errors.Is(err, journal.ErrAlreadyCompleted), "unexpected error: %v", err)
			}(i)
		}
		wg.Wait()

		require.Len(t, winners, 1)
		got, err := j.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, winners[0], got.Result)
	})

	t.Run("concurrent writes to distinct actions", func(t *testing.T) {
		ctx := context.Background()
		j := open(t)
		const n = 24
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := DeployID(fmt.Sprintf("C%02d", i))
				if _, err := j.RecordStart(ctx, journal.Record{ID: id}); !assert.NoError(t, err) {
					return
				}
				_, err := j.RecordCompletion(ctx, journal.Record{ID: id, Result: fmt.Sprintf("0x%02x", i)})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		entries, err := j.Entries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, n)
		for _, e := range entries {
			assert.Equal(t, journal.StatusCompleted, e.Status)
		}
	})
}

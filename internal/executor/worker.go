package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
)

// worker is the processing loop of one pool member. It runs until work is
// closed.
func (e *Executor) worker(ctx context.Context, work <-chan *action.Action, done chan<- finished, results *Results, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for a := range work {
		logger.Debug("Worker picked up action.", "workerID", workerID, "action_id", a.Key())
		start := time.Now()
		out, err := e.Execute(ctx, a, results)
		done <- finished{action: a, outcome: out, err: err, elapsed: time.Since(start)}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

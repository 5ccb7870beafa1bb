package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPruneHistoryTask creates the scheduled task that removes messages older
// than the configured retention window. With retention_days set to 0 the
// task is a no-op and history is kept forever.
func newPruneHistoryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "prune_history")

	return func(ctx context.Context) error {
		retentionDays := deps.Config.Database.RetentionDays
		if retentionDays <= 0 {
			log.DebugContext(ctx, "Message retention disabled, skipping prune")
			return nil
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
		log.InfoContext(ctx, "Pruning old messages...", "cutoff", cutoff)

		count, err := deps.Store.PruneMessagesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Prune task failed", "error", err)
			return fmt.Errorf("prune history failed: %w", err)
		}

		log.InfoContext(ctx, "Prune task completed", "pruned", count)
		return nil
	}
}

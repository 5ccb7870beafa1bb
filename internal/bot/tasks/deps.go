// Package tasks contains the scheduled maintenance tasks and their registry.
package tasks

import (
	"context"
	"log/slog"

	"github.com/mfranco/lumibot/internal/config"
	"github.com/mfranco/lumibot/internal/database"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps provides dependencies for scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}

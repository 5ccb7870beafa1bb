package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// FindUser retrieves a user by platform ID. Returns nil, nil if not found.
	FindUser(ctx context.Context, id int64) (*User, error)

	// InsertUser creates a user record if one does not already exist for the
	// same ID. Calling it again for a known ID is a no-op.
	InsertUser(ctx context.Context, user *User) error

	// SaveMessage appends a new message record. Messages are never updated
	// or deleted by turn handling.
	SaveMessage(ctx context.Context, message *Message) error

	// GetRecentMessages retrieves the most recent 'limit' messages for a
	// given user, most-recent-first. A non-zero beforeID restricts the result
	// to rows inserted before that message, so the caller can exclude an
	// already-persisted current turn from its own history.
	GetRecentMessages(ctx context.Context, userID int64, beforeID uint, limit int) ([]Message, error)

	// PruneMessagesBefore deletes messages older than the cutoff. Operator
	// maintenance only; returns the number of rows removed.
	PruneMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindUser retrieves a user by platform ID. Returns nil, nil if not found.
func (s *sqlxStore) FindUser(ctx context.Context, id int64) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}

	var user User
	query := `SELECT id, username, first_name, created_at FROM users WHERE id = ?`

	err := s.db.GetContext(ctx, &user, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", id)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user by ID", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	return &user, nil
}

// InsertUser creates a user record, ignoring the insert if the ID is already
// present. User rows are never mutated after creation.
func (s *sqlxStore) InsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot insert nil user")
	}
	if user.ID == 0 {
		return fmt.Errorf("user must have a non-zero id")
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO users (id, username, first_name, created_at)
        VALUES (:id, :username, :first_name, :created_at)
        ON CONFLICT (id) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to insert user %d: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 1 {
		s.logger.InfoContext(ctx, "Registered new user", "user_id", user.ID, "username", user.Username)
	}

	return nil
}

// SaveMessage appends a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if message.Role != RoleUser && message.Role != RoleBot {
		return fmt.Errorf("message role must be %q or %q, got %q", RoleUser, RoleBot, message.Role)
	}
	if message.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO messages (user_id, role, content, created_at)
        VALUES (:user_id, :role, :content, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "user_id", message.UserID, "role", message.Role, "error", err)
		return fmt.Errorf("failed to save message (user %d): %w", message.UserID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		message.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"user_id", message.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"user_id", message.UserID, "role", message.Role, "message_id", message.ID)
	return nil
}

// GetRecentMessages retrieves the most recent 'limit' messages for a given user.
// Results are ordered most-recent-first; callers reverse them for context use.
func (s *sqlxStore) GetRecentMessages(ctx context.Context, userID int64, beforeID uint, limit int) ([]Message, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if limit <= 0 {
		limit = 5
	} else if limit > 100 {
		limit = 100
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, user_id, role, content, created_at
        FROM messages
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `
	args := []any{userID, limit}
	if beforeID > 0 {
		query = `
        SELECT id, user_id, role, content, created_at
        FROM messages
        WHERE user_id = ? AND id < ?
        ORDER BY id DESC
        LIMIT ?;
    `
		args = []any{userID, beforeID, limit}
	}

	err := s.db.SelectContext(ctx, &messages, query, args...)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages",
			"user_id", userID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "user_id", userID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages", "user_id", userID, "count", len(messages))
	return messages, nil
}

// PruneMessagesBefore deletes messages created before the cutoff timestamp.
func (s *sqlxStore) PruneMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM messages WHERE created_at < ?`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning old messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune messages before %s: %w", cutoff, err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Pruned old messages", "cutoff", cutoff, "count", count)
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

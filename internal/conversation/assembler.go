package conversation

import (
	"context"
	"log/slog"

	"github.com/mfranco/lumibot/internal/backend"
	"github.com/mfranco/lumibot/internal/database"
)

// ContextWindowSize bounds how many prior messages are supplied to the text
// backend as conversation memory.
const ContextWindowSize = 5

// AssembleContext builds the ordered prompt sequence for text generation:
// the system instruction, up to ContextWindowSize prior messages for the
// user in chronological order, then the current turn's text.
//
// The current turn is already persisted when this runs, so its row ID is
// passed as beforeID to keep it out of the history window; it is appended
// exactly once, at the end.
//
// A store read failure degrades to empty history rather than failing the
// turn, so the output always ends with the current turn and always starts
// with the instruction.
func AssembleContext(ctx context.Context, store database.Store, logger *slog.Logger, instruction string, userID int64, beforeID uint, current string) []backend.Prompt {
	history, err := store.GetRecentMessages(ctx, userID, beforeID, ContextWindowSize)
	if err != nil {
		logger.WarnContext(ctx, "Failed to retrieve message history, continuing with empty context",
			"user_id", userID, "error", err)
		history = nil
	}

	prompts := make([]backend.Prompt, 0, len(history)+2)
	prompts = append(prompts, backend.Prompt{Role: backend.RoleSystem, Content: instruction})

	// The store returns most-recent-first; walk backwards for chronological order.
	for i := len(history) - 1; i >= 0; i-- {
		role := backend.RoleUser
		if history[i].Role == database.RoleBot {
			role = backend.RoleAssistant
		}
		prompts = append(prompts, backend.Prompt{Role: role, Content: history[i].Content})
	}

	prompts = append(prompts, backend.Prompt{Role: backend.RoleUser, Content: current})
	return prompts
}

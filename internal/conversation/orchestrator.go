package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mfranco/lumibot/internal/backend"
	"github.com/mfranco/lumibot/internal/config"
	"github.com/mfranco/lumibot/internal/database"
)

// ImageFailureMarker is persisted as the bot-side content when image
// generation fails, so history reflects the failed turn.
const ImageFailureMarker = "[image generation failed]"

const (
	saveRetries    = 3
	saveRetryDelay = 500 * time.Millisecond
	dbSaveTimeout  = 5 * time.Second
)

// Turn is one inbound user message, translated from the transport's event
// shape by a thin adapter.
type Turn struct {
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

// ReplyKind distinguishes text replies from image replies.
type ReplyKind int

const (
	// ReplyText carries plain text in Content.
	ReplyText ReplyKind = iota
	// ReplyImage carries an image URL in Locator plus a Caption.
	ReplyImage
)

// Reply is the outcome of a turn, handed to the transport for delivery.
type Reply struct {
	Kind    ReplyKind
	Content string
	Locator string
	Caption string
}

// Orchestrator owns the per-turn control flow and persistence ordering. It
// holds no cross-turn state beyond what it re-reads from the store, so one
// instance serves all users and transports.
type Orchestrator struct {
	store       database.Store
	client      backend.Client
	messages    config.MessagesConfig
	instruction string
	logger      *slog.Logger
}

// NewOrchestrator creates the turn handler with all collaborators injected.
func NewOrchestrator(store database.Store, client backend.Client, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		store:       store,
		client:      client,
		messages:    cfg.Messages,
		instruction: cfg.Backend.Instruction,
		logger:      logger.With("component", "orchestrator"),
	}
}

// HandleTurn processes one inbound message end to end and returns the reply
// to deliver. Every path produces exactly one persisted user row and one
// persisted bot row, and always returns some reply: no error originating in
// the store or the backends escapes this method.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) Reply {
	log := o.logger.With("user_id", turn.UserID)

	o.registerUser(ctx, turn)

	// Persist the inbound message before any backend call so history
	// reflects the turn even if generation fails. SaveMessage backfills the
	// row ID; the text path uses it to keep this row out of its own context.
	inbound := &database.Message{
		UserID:  turn.UserID,
		Role:    database.RoleUser,
		Content: turn.Text,
	}
	o.saveMessageWithRetry(ctx, inbound, "incoming message")

	var reply Reply
	var botContent string

	switch {
	case IsCreatorQuery(turn.Text):
		log.InfoContext(ctx, "Handling creator query")
		botContent = o.messages.CreatorReply
		reply = Reply{Kind: ReplyText, Content: botContent}

	case ClassifyIntent(turn.Text) == ImageRequest:
		reply, botContent = o.handleImageRequest(ctx, turn)

	default:
		reply, botContent = o.handleTextRequest(ctx, turn, inbound.ID)
	}

	o.saveMessageWithRetry(ctx, &database.Message{
		UserID:  turn.UserID,
		Role:    database.RoleBot,
		Content: botContent,
	}, "bot reply")

	return reply
}

// registerUser provisions the user identity idempotently. Registration is
// best-effort: its failure never fails the turn.
func (o *Orchestrator) registerUser(ctx context.Context, turn Turn) {
	err := o.store.InsertUser(ctx, &database.User{
		ID:        turn.UserID,
		Username:  turn.Username,
		FirstName: turn.FirstName,
	})
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to register user, continuing turn",
			"user_id", turn.UserID, "error", err)
	}
}

func (o *Orchestrator) handleImageRequest(ctx context.Context, turn Turn) (Reply, string) {
	log := o.logger.With("user_id", turn.UserID)
	log.InfoContext(ctx, "Handling image request")

	locator, err := o.client.GenerateImage(ctx, turn.Text)
	if err != nil {
		log.ErrorContext(ctx, "Image generation failed", "error", err)
		return Reply{Kind: ReplyText, Content: o.messages.ImageError}, ImageFailureMarker
	}

	reply := Reply{Kind: ReplyImage, Locator: locator, Caption: o.messages.ImageCaption}
	return reply, locator
}

func (o *Orchestrator) handleTextRequest(ctx context.Context, turn Turn, inboundID uint) (Reply, string) {
	log := o.logger.With("user_id", turn.UserID)
	log.InfoContext(ctx, "Handling text request")

	prompts := AssembleContext(ctx, o.store, o.logger, o.instruction, turn.UserID, inboundID, turn.Text)

	text, err := o.client.GenerateText(ctx, prompts)
	if err != nil {
		// The fallback string is persisted as-is: the persistence layer does
		// not distinguish it from a genuine answer.
		fallback := o.messages.TextFallback
		if errors.Is(err, backend.ErrMalformedResponse) {
			fallback = o.messages.EmptyFallback
		}
		log.ErrorContext(ctx, "Text generation failed, using fallback", "error", err)
		return Reply{Kind: ReplyText, Content: fallback}, fallback
	}

	return Reply{Kind: ReplyText, Content: text}, text
}

// saveMessageWithRetry persists a message with bounded retries. Persistence
// is best-effort: exhausting the retries does not abort the turn.
func (o *Orchestrator) saveMessageWithRetry(ctx context.Context, msg *database.Message, msgType string) {
	var err error
	for i := 0; i < saveRetries; i++ {
		if ctx.Err() != nil {
			o.logger.WarnContext(ctx, "Context cancelled, aborting save attempts",
				"type", msgType, "user_id", msg.UserID, "attempt", i+1)
			return
		}

		dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
		err = o.store.SaveMessage(dbCtx, msg)
		cancel()

		if err == nil {
			return
		}

		o.logger.WarnContext(ctx, "Failed to save message, retrying",
			"type", msgType, "user_id", msg.UserID, "attempt", i+1, "error", err)
		if i < saveRetries-1 {
			time.Sleep(time.Duration(i+1) * saveRetryDelay)
		}
	}

	o.logger.ErrorContext(ctx, "Failed to save message after retries",
		"type", msgType, "user_id", msg.UserID, "last_error", err)
}

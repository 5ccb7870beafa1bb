// Package telegram is the thin Telegram adapter: it translates platform
// update events into conversation turns, hands them to the orchestrator,
// and delivers the resulting reply.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mfranco/lumibot/internal/config"
	"github.com/mfranco/lumibot/internal/conversation"
)

const sendMessageTimeout = 10 * time.Second

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully")
	return b, nil
}

// TurnFromUpdate translates a Telegram update into the core's turn input.
// It returns false for update shapes the core does not handle.
func TurnFromUpdate(update *models.Update) (conversation.Turn, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return conversation.Turn{}, false
	}

	msg := update.Message
	return conversation.Turn{
		UserID:    msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
	}, true
}

// NewMessageHandler returns the default handler for inbound text messages.
// It runs one orchestrator turn per update and delivers the reply.
func NewMessageHandler(orch *conversation.Orchestrator, logger *slog.Logger) bot.HandlerFunc {
	log := logger.With("handler", "message")

	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		turn, ok := TurnFromUpdate(update)
		if !ok {
			log.DebugContext(ctx, "Ignoring update without a usable text message")
			return
		}

		chatID := update.Message.Chat.ID
		_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

		reply := orch.HandleTurn(ctx, turn)

		deliverReply(ctx, b, log, chatID, update.Message.ID, reply)
	}
}

// NewStartHandler returns the handler for the /start command.
func NewStartHandler(cfg *config.Config, logger *slog.Logger) bot.HandlerFunc {
	log := logger.With("handler", "start")

	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		chatID := update.Message.Chat.ID
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: cfg.Messages.Welcome}); err != nil {
			log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
		}
	}
}

// deliverReply hands the reply to Telegram. Delivery failure is logged but
// not retried; the turn is already persisted by the orchestrator.
func deliverReply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, replyTo int, reply conversation.Reply) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	var err error
	switch reply.Kind {
	case conversation.ReplyImage:
		_, err = b.SendPhoto(sendCtx, &bot.SendPhotoParams{
			ChatID:          chatID,
			Photo:           &models.InputFileString{Data: reply.Locator},
			Caption:         reply.Caption,
			ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
		})
	default:
		_, err = b.SendMessage(sendCtx, &bot.SendMessageParams{
			ChatID:          chatID,
			Text:            reply.Content,
			ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
		})
	}

	if err != nil {
		log.ErrorContext(ctx, "Failed to deliver reply", "error", err, "chat_id", chatID)
		return
	}

	log.InfoContext(ctx, "Delivered reply", "chat_id", chatID)
}

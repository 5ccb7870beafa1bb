// Package bot implements the application run loop: it joins the Telegram
// transport and the task scheduler and handles graceful shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/mfranco/lumibot/internal/config"
	"github.com/mfranco/lumibot/internal/database"
)

// Bot represents the running application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	store     database.Store
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "run_loop"),
		cfg:       cfg,
		db:        db,
		store:     store,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on
// context cancellation. Both transport modes feed the same turn handler; the
// mode only changes how Telegram delivers updates.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting run loop...", "transport_mode", b.cfg.Telegram.Mode)

	g, gCtx := errgroup.WithContext(ctx)

	if b.cfg.Telegram.Mode == "webhook" {
		b.runWebhook(g, gCtx)
	} else {
		g.Go(func() error {
			b.logger.Info("Starting Telegram long-poll listener...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram listener stopped.")

			if gCtx.Err() == nil {
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Run loop stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Run loop stopped gracefully.")
	return nil
}

// runWebhook serves Telegram updates over HTTP instead of long-polling.
func (b *Bot) runWebhook(g *errgroup.Group, gCtx context.Context) {
	srv := &http.Server{
		Addr:              b.cfg.Telegram.WebhookAddr,
		Handler:           b.tgBot.WebhookHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		b.logger.Info("Starting Telegram webhook listener...", "addr", srv.Addr)
		b.tgBot.StartWebhook(gCtx)
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

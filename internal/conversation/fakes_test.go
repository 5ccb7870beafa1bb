package conversation

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mfranco/lumibot/internal/backend"
	"github.com/mfranco/lumibot/internal/config"
	"github.com/mfranco/lumibot/internal/database"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Backend.Instruction = "You are a helpful assistant."
	cfg.Messages = config.MessagesConfig{
		Welcome:       "welcome",
		CreatorReply:  "I was created by my developer.",
		TextFallback:  "fallback: backend unavailable",
		EmptyFallback: "fallback: empty response",
		ImageCaption:  "Here's your image!",
		ImageError:    "image generation failed, sorry",
	}
	return cfg
}

// fakeStore is an in-memory Store for orchestrator and assembler tests.
type fakeStore struct {
	users           map[int64]*database.User
	messages        []database.Message
	nextID          uint
	insertUserCalls int
	saveCalls       int

	recentErr error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*database.User), nextID: 1}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) FindUser(_ context.Context, id int64) (*database.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (s *fakeStore) InsertUser(_ context.Context, user *database.User) error {
	s.insertUserCalls++
	if _, ok := s.users[user.ID]; ok {
		return nil
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) SaveMessage(_ context.Context, message *database.Message) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	message.ID = s.nextID
	s.nextID++
	s.messages = append(s.messages, *message)
	return nil
}

func (s *fakeStore) GetRecentMessages(_ context.Context, userID int64, beforeID uint, limit int) ([]database.Message, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}

	var recent []database.Message
	for i := len(s.messages) - 1; i >= 0 && len(recent) < limit; i-- {
		if s.messages[i].UserID != userID {
			continue
		}
		if beforeID > 0 && s.messages[i].ID >= beforeID {
			continue
		}
		recent = append(recent, s.messages[i])
	}
	return recent, nil
}

func (s *fakeStore) PruneMessagesBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (s *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

// rows returns the persisted messages for a user, oldest-first.
func (s *fakeStore) rows(userID int64) []database.Message {
	var out []database.Message
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

// fakeBackend records generation calls and returns canned results.
type fakeBackend struct {
	textResponse string
	textErr      error
	imageURL     string
	imageErr     error

	textCalls   int
	imageCalls  int
	lastPrompts []backend.Prompt
	lastPrompt  string
}

func (b *fakeBackend) GenerateText(_ context.Context, prompts []backend.Prompt) (string, error) {
	b.textCalls++
	b.lastPrompts = prompts
	if b.textErr != nil {
		return "", b.textErr
	}
	return b.textResponse, nil
}

func (b *fakeBackend) GenerateImage(_ context.Context, prompt string) (string, error) {
	b.imageCalls++
	b.lastPrompt = prompt
	if b.imageErr != nil {
		return "", b.imageErr
	}
	return b.imageURL, nil
}

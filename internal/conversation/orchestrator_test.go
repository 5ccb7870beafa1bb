package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mfranco/lumibot/internal/backend"
	"github.com/mfranco/lumibot/internal/database"
)

// requireTurnRows asserts the turn produced exactly one user row and one bot
// row with the expected contents, in that order.
func requireTurnRows(t *testing.T, store *fakeStore, userID int64, userContent, botContent string) {
	t.Helper()

	rows := store.rows(userID)
	if len(rows) != 2 {
		t.Fatalf("got %d persisted rows, want 2 (one user, one bot)", len(rows))
	}
	if rows[0].Role != database.RoleUser || rows[0].Content != userContent {
		t.Errorf("user row = {%s %q}, want {user %q}", rows[0].Role, rows[0].Content, userContent)
	}
	if rows[1].Role != database.RoleBot || rows[1].Content != botContent {
		t.Errorf("bot row = {%s %q}, want {bot %q}", rows[1].Role, rows[1].Content, botContent)
	}
}

func TestHandleTurnTextPath(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	client := &fakeBackend{textResponse: "Hi there!"}
	orch := NewOrchestrator(store, client, testConfig(), discardLogger())

	turn := Turn{UserID: 42, Username: "alice", FirstName: "Alice", Text: "hello"}
	reply := orch.HandleTurn(context.Background(), turn)

	if reply.Kind != ReplyText || reply.Content != "Hi there!" {
		t.Errorf("reply = %+v, want text %q", reply, "Hi there!")
	}

	if user, _ := store.FindUser(context.Background(), 42); user == nil {
		t.Error("user 42 was not registered")
	}

	requireTurnRows(t, store, 42, "hello", "Hi there!")

	if client.textCalls != 1 {
		t.Errorf("text backend called %d times, want 1", client.textCalls)
	}
	if client.imageCalls != 0 {
		t.Errorf("image backend called %d times, want 0", client.imageCalls)
	}

	// The inbound row is persisted before the backend call but excluded from
	// its own history, so a fresh user yields instruction + current turn only.
	if len(client.lastPrompts) != 2 {
		t.Fatalf("backend received %d prompts, want 2", len(client.lastPrompts))
	}
	if client.lastPrompts[0].Role != backend.RoleSystem {
		t.Errorf("first prompt role = %q, want system", client.lastPrompts[0].Role)
	}
	if last := client.lastPrompts[1]; last.Content != "hello" {
		t.Errorf("last prompt = %q, want %q", last.Content, "hello")
	}
}

func TestHandleTurnContextWindow(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for i := 1; i <= ContextWindowSize; i++ {
		role := database.RoleUser
		if i%2 == 0 {
			role = database.RoleBot
		}
		_ = store.SaveMessage(context.Background(), &database.Message{
			UserID:  42,
			Role:    role,
			Content: fmt.Sprintf("prior %d", i),
		})
	}
	client := &fakeBackend{textResponse: "ok"}
	orch := NewOrchestrator(store, client, testConfig(), discardLogger())

	orch.HandleTurn(context.Background(), Turn{UserID: 42, Text: "current turn"})

	// Instruction, all five prior rows in order, then the current turn once.
	want := []string{
		testInstruction,
		"prior 1", "prior 2", "prior 3", "prior 4", "prior 5",
		"current turn",
	}
	if len(client.lastPrompts) != len(want) {
		t.Fatalf("backend received %d prompts, want %d", len(client.lastPrompts), len(want))
	}
	for i, w := range want {
		if client.lastPrompts[i].Content != w {
			t.Errorf("prompt %d content = %q, want %q", i, client.lastPrompts[i].Content, w)
		}
	}
}

func TestHandleTurnRegistrationIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	client := &fakeBackend{textResponse: "ok"}
	orch := NewOrchestrator(store, client, testConfig(), discardLogger())

	turn := Turn{UserID: 42, Username: "alice", Text: "hello"}
	orch.HandleTurn(context.Background(), turn)
	orch.HandleTurn(context.Background(), turn)

	if store.insertUserCalls != 2 {
		t.Errorf("InsertUser called %d times, want 2", store.insertUserCalls)
	}
	if len(store.users) != 1 {
		t.Errorf("got %d user rows, want exactly 1", len(store.users))
	}
}

func TestHandleTurnCreatorPath(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := newFakeStore()
	client := &fakeBackend{textResponse: "should not be used", imageURL: "should not be used"}
	orch := NewOrchestrator(store, client, cfg, discardLogger())

	// Creator check has priority over the image keyword "draw".
	turn := Turn{UserID: 7, Text: "please draw who created you"}
	reply := orch.HandleTurn(context.Background(), turn)

	if reply.Kind != ReplyText || reply.Content != cfg.Messages.CreatorReply {
		t.Errorf("reply = %+v, want creator reply %q", reply, cfg.Messages.CreatorReply)
	}
	if client.textCalls != 0 || client.imageCalls != 0 {
		t.Errorf("backends called (text=%d image=%d), want neither", client.textCalls, client.imageCalls)
	}

	requireTurnRows(t, store, 7, "please draw who created you", cfg.Messages.CreatorReply)
}

func TestHandleTurnImagePath(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := newFakeStore()
	client := &fakeBackend{imageURL: "https://images.example/cat.png"}
	orch := NewOrchestrator(store, client, cfg, discardLogger())

	turn := Turn{UserID: 9, Text: "draw me a cat"}
	reply := orch.HandleTurn(context.Background(), turn)

	if reply.Kind != ReplyImage {
		t.Fatalf("reply kind = %v, want image", reply.Kind)
	}
	if reply.Locator != "https://images.example/cat.png" {
		t.Errorf("reply locator = %q, want image URL", reply.Locator)
	}
	if reply.Caption != cfg.Messages.ImageCaption {
		t.Errorf("reply caption = %q, want %q", reply.Caption, cfg.Messages.ImageCaption)
	}
	if client.lastPrompt != "draw me a cat" {
		t.Errorf("image backend received prompt %q, want raw text", client.lastPrompt)
	}

	requireTurnRows(t, store, 9, "draw me a cat", "https://images.example/cat.png")
}

func TestHandleTurnImageFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := newFakeStore()
	client := &fakeBackend{imageErr: errors.New("backend unavailable")}
	orch := NewOrchestrator(store, client, cfg, discardLogger())

	turn := Turn{UserID: 9, Text: "draw me a cat"}
	reply := orch.HandleTurn(context.Background(), turn)

	if reply.Kind != ReplyText || reply.Content != cfg.Messages.ImageError {
		t.Errorf("reply = %+v, want image error message", reply)
	}

	// The persisted bot content is the explicit failure marker, not a locator.
	requireTurnRows(t, store, 9, "draw me a cat", ImageFailureMarker)
}

func TestHandleTurnTextFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := newFakeStore()
	client := &fakeBackend{textErr: errors.New("backend unavailable")}
	orch := NewOrchestrator(store, client, cfg, discardLogger())

	turn := Turn{UserID: 42, Text: "hello"}
	reply := orch.HandleTurn(context.Background(), turn)

	if reply.Kind != ReplyText || reply.Content != cfg.Messages.TextFallback {
		t.Errorf("reply = %+v, want fallback %q", reply, cfg.Messages.TextFallback)
	}

	// The fallback string is what gets persisted as the bot message.
	requireTurnRows(t, store, 42, "hello", cfg.Messages.TextFallback)
}

func TestHandleTurnMalformedTextResponse(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	store := newFakeStore()
	client := &fakeBackend{textErr: backend.ErrMalformedResponse}
	orch := NewOrchestrator(store, client, cfg, discardLogger())

	reply := orch.HandleTurn(context.Background(), Turn{UserID: 42, Text: "hello"})

	if reply.Content != cfg.Messages.EmptyFallback {
		t.Errorf("reply content = %q, want empty-response fallback", reply.Content)
	}
	requireTurnRows(t, store, 42, "hello", cfg.Messages.EmptyFallback)
}

func TestHandleTurnStoreReadFailureStillCompletes(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.recentErr = errors.New("store unavailable")
	client := &fakeBackend{textResponse: "still fine"}
	orch := NewOrchestrator(store, client, testConfig(), discardLogger())

	reply := orch.HandleTurn(context.Background(), Turn{UserID: 42, Text: "hello"})

	if reply.Content != "still fine" {
		t.Errorf("reply content = %q, want %q", reply.Content, "still fine")
	}
	// Generation degraded to instruction + current turn only.
	if len(client.lastPrompts) != 2 {
		t.Errorf("backend received %d prompts, want 2", len(client.lastPrompts))
	}
}

func TestHandleTurnSaveFailureStillReplies(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	client := &fakeBackend{textResponse: "still fine"}
	orch := NewOrchestrator(store, client, testConfig(), discardLogger())

	reply := orch.HandleTurn(context.Background(), Turn{UserID: 42, Text: "hello"})

	// Persistence is best-effort: exhausting the retries on both the user row
	// and the bot row must not stop the reply from being produced.
	if reply.Kind != ReplyText || reply.Content != "still fine" {
		t.Errorf("reply = %+v, want text %q", reply, "still fine")
	}
	if want := 2 * saveRetries; store.saveCalls != want {
		t.Errorf("SaveMessage called %d times, want %d (retries for both rows)", store.saveCalls, want)
	}
	if rows := store.rows(42); len(rows) != 0 {
		t.Errorf("got %d persisted rows, want 0", len(rows))
	}
}

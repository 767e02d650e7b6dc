package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/asqlan/brutalbot/internal/bot/handlers"
	"github.com/asqlan/brutalbot/internal/config"
	"github.com/asqlan/brutalbot/internal/database"
)

// fakeAPI is a stand-in Telegram Bot API server. It records every method
// call with its raw request body and answers with a minimal success payload.
type fakeAPI struct {
	mu    sync.Mutex
	srv   *httptest.Server
	calls []apiCall
}

type apiCall struct {
	method string
	body   string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	api.srv = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	method := path.Base(r.URL.Path)

	a.mu.Lock()
	a.calls = append(a.calls, apiCall{method: method, body: string(body)})
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage", "sendInvoice", "editMessageText":
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":1}}}`)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (a *fakeAPI) callsTo(method string) []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []apiCall
	for _, c := range a.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (a *fakeAPI) lastBody(t *testing.T, method string) string {
	t.Helper()

	calls := a.callsTo(method)
	require.NotEmpty(t, calls, "expected at least one %s call", method)
	return calls[len(calls)-1].body
}

// fakeStore is an in-memory Store with just enough behavior for handler tests.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[int64]*database.UserAccount
	recorded []int64
	plans    []database.Plan
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[int64]*database.UserAccount)}
}

func (s *fakeStore) addUser(userID int64, mode database.Mode) *database.UserAccount {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := &database.UserAccount{
		UserID:      userID,
		DefaultMode: mode,
		Plan:        database.PlanFree,
		DailyLimit:  database.FreeDailyLimit,
		LastReset:   time.Now().UTC(),
	}
	s.accounts[userID] = account
	return account
}

func (s *fakeStore) recordCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range s.recorded {
		if id == userID {
			n++
		}
	}
	return n
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) RegisterUser(_ context.Context, userID int64, _ string, mode database.Mode) (bool, error) {
	s.mu.Lock()
	_, exists := s.accounts[userID]
	s.mu.Unlock()
	if exists {
		return false, nil
	}
	s.addUser(userID, mode)
	return true, nil
}

func (s *fakeStore) GetUser(_ context.Context, userID int64) (*database.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

func (s *fakeStore) PromoteToAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return false, nil
	}
	account.IsAdmin = true
	return true, nil
}

func (s *fakeStore) IsAdmin(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	return ok && account.IsAdmin, nil
}

func (s *fakeStore) SetMode(_ context.Context, userID int64, mode database.Mode) (bool, error) {
	if !mode.Valid() {
		return false, fmt.Errorf("invalid mode %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return false, nil
	}
	account.DefaultMode = mode
	return true, nil
}

func (s *fakeStore) RecordMessage(_ context.Context, userID int64, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return false, nil
	}
	account.MessagesSent++
	s.recorded = append(s.recorded, userID)
	return true, nil
}

func (s *fakeStore) GetStats(_ context.Context, userID int64) (*database.UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &database.UsageStats{
		MessagesSent: account.MessagesSent,
		DailyLimit:   account.DailyLimit,
		Remaining:    account.DailyLimit - account.MessagesSent,
		Plan:         account.Plan,
	}, nil
}

func (s *fakeStore) SetPlan(_ context.Context, userID int64, plan database.Plan, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return false, nil
	}
	account.Plan = plan
	account.DailyLimit = plan.DailyLimit()
	s.plans = append(s.plans, plan)
	return true, nil
}

func (s *fakeStore) ExpireLapsedSubscriptions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

// fakeGemini returns a canned reply or error and counts invocations.
type fakeGemini struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeGemini) GenerateReply(_ context.Context, _ database.Mode, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	return f.reply, f.err
}

func (f *fakeGemini) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type handlerEnv struct {
	bot   *tgbot.Bot
	api   *fakeAPI
	store *fakeStore
	gem   *fakeGemini
	deps  handlers.HandlerDeps
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	api := newFakeAPI(t)
	b, err := tgbot.New("test-token",
		tgbot.WithServerURL(api.srv.URL),
		tgbot.WithSkipGetMe(),
	)
	require.NoError(t, err)

	store := newFakeStore()
	gem := &fakeGemini{reply: "Here is the truth you asked for."}

	cfg := &config.Config{
		Telegram: config.TelegramConfig{AdminUserID: 1},
		Payment:  config.PaymentConfig{Currency: "XTR", PremiumPrice: 250},
		Messages: config.MessagesConfig{
			RegisterPrompt:     "Please use /start first to register!",
			ChooseMode:         "Choose a mode to start:",
			AIError:            "Error generating response.",
			AIEmptyResponse:    "Empty response from AI",
			PaymentUnavailable: "Payment system is temporarily unavailable.",
			DonateComingSoon:   "Donation feature coming soon!",
			NotAuthorized:      "You are not authorized to use this command.",
			GeneralError:       "An error occurred.",
		},
	}

	return &handlerEnv{
		bot:   b,
		api:   api,
		store: store,
		gem:   gem,
		deps: handlers.HandlerDeps{
			Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
			Config:       cfg,
			Store:        store,
			GeminiClient: gem,
		},
	}
}

func textUpdate(userID, chatID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   7,
			Date: 1700000000,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func callbackUpdate(userID, chatID int64, data string) *models.Update {
	return &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID:   9,
					Date: 1700000000,
					Chat: models.Chat{ID: chatID},
				},
			},
		},
	}
}

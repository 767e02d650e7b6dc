package handlers_test

import (
	"context"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/asqlan/brutalbot/internal/bot/handlers"
	"github.com/asqlan/brutalbot/internal/database"
)

func TestStartHandler_RegistersNewUser(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewStartHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "/start"))

	account, err := env.store.GetUser(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, account, "/start must register the user")
	require.Equal(t, database.ModeBrutal, account.DefaultMode)

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, "Registered: <code>NO</code>")
	require.Contains(t, body, "BRUTAL")
	require.Contains(t, body, "FREE")
}

func TestStartHandler_ExistingUserKeepsState(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	account := env.store.addUser(100, database.ModeSarcastic)
	account.MessagesSent = 3
	handle := handlers.NewStartHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "/start"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, "Registered: <code>YES</code>")
	require.Contains(t, body, "SARCASTIC")
	require.Contains(t, body, "3 / 10")
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	account := env.store.addUser(100, database.ModeBrutal)
	account.MessagesSent = 4
	handle := handlers.NewStatsHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "/stats"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, "4 / 10")
	require.Contains(t, body, "Remaining today: <code>6</code>")
}

func TestStatsHandler_UnregisteredUser(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewStatsHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "/stats"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, env.deps.Config.Messages.RegisterPrompt)
}

func TestPromoteHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		register bool
		want     string
	}{
		{name: "missing argument", text: "/promote", want: "Usage: /promote"},
		{name: "bad argument", text: "/promote abc", want: "Invalid user ID"},
		{name: "unknown user", text: "/promote 200", want: "not registered"},
		{name: "success", text: "/promote 200", register: true, want: "is now an admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newHandlerEnv(t)
			if tt.register {
				env.store.addUser(200, database.ModeBrutal)
			}
			handle := handlers.NewPromoteHandler(env.deps)

			handle(context.Background(), env.bot, textUpdate(1, 55, tt.text))

			body := env.api.lastBody(t, "sendMessage")
			require.Contains(t, body, tt.want)

			if tt.register {
				isAdmin, err := env.store.IsAdmin(context.Background(), 200)
				require.NoError(t, err)
				require.True(t, isAdmin)
			}
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		userID     int64
		storeAdmin bool
		allowed    bool
	}{
		{name: "configured admin", userID: 1, allowed: true},
		{name: "stored admin", userID: 300, storeAdmin: true, allowed: true},
		{name: "regular user", userID: 300, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newHandlerEnv(t)
			if tt.storeAdmin {
				account := env.store.addUser(tt.userID, database.ModeBrutal)
				account.IsAdmin = true
			}

			called := false
			next := func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
				called = true
			}
			guarded := handlers.AdminOnly(env.deps)(next)

			guarded(context.Background(), env.bot, textUpdate(tt.userID, 55, "/promote 200"))

			require.Equal(t, tt.allowed, called)
			if !tt.allowed {
				body := env.api.lastBody(t, "sendMessage")
				require.Contains(t, body, env.deps.Config.Messages.NotAuthorized)
			}
		})
	}
}

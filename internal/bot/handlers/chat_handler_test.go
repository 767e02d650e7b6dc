package handlers_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asqlan/brutalbot/internal/bot/handlers"
	"github.com/asqlan/brutalbot/internal/database"
	"github.com/asqlan/brutalbot/internal/gemini"
)

func TestUpdateHandler_UnregisteredUserIsPrompted(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewUpdateHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "am I a genius?"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, env.deps.Config.Messages.RegisterPrompt)
	require.Zero(t, env.gem.callCount(), "AI must not be called for unregistered users")
	require.Zero(t, env.store.recordCount(100), "no usage may be charged to unregistered users")
}

func TestUpdateHandler_RepliesAndChargesQuota(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	env.store.addUser(100, database.ModeBrutal)
	handle := handlers.NewUpdateHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "rate my startup idea"))

	require.NotEmpty(t, env.api.callsTo("sendChatAction"), "typing action should be sent")
	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, env.gem.reply)
	require.Equal(t, 1, env.gem.callCount())
	require.Equal(t, 1, env.store.recordCount(100))
}

func TestUpdateHandler_QuotaExceededSkipsAI(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	account := env.store.addUser(100, database.ModeBrutal)
	account.MessagesSent = account.DailyLimit
	handle := handlers.NewUpdateHandler(env.deps)

	handle(context.Background(), env.bot, textUpdate(100, 55, "one more?"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, "daily message limit")
	require.Contains(t, body, "Upgrade to premium")
	require.Zero(t, env.gem.callCount(), "AI must not be called once the quota is exhausted")
	require.Zero(t, env.store.recordCount(100), "a blocked request must not consume quota")
}

func TestUpdateHandler_AIFailureStillChargesQuota(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		aiErr    error
		fallback func(env *handlerEnv) string
	}{
		{
			name:     "generic failure",
			aiErr:    errors.New("api unreachable"),
			fallback: func(env *handlerEnv) string { return env.deps.Config.Messages.AIError },
		},
		{
			name:     "empty response",
			aiErr:    gemini.ErrEmptyResponse,
			fallback: func(env *handlerEnv) string { return env.deps.Config.Messages.AIEmptyResponse },
		},
		{
			name:     "wrapped empty response",
			aiErr:    gemini.ErrBlocked,
			fallback: func(env *handlerEnv) string { return env.deps.Config.Messages.AIError },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newHandlerEnv(t)
			env.store.addUser(100, database.ModeSarcastic)
			env.gem.err = tt.aiErr
			handle := handlers.NewUpdateHandler(env.deps)

			handle(context.Background(), env.bot, textUpdate(100, 55, "hello?"))

			body := env.api.lastBody(t, "sendMessage")
			require.Contains(t, body, tt.fallback(env))
			require.Equal(t, 1, env.store.recordCount(100),
				"usage is charged per request, not per successful completion")
		})
	}
}

func TestUpdateHandler_IgnoresNonTextUpdates(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewUpdateHandler(env.deps)

	update := textUpdate(100, 55, "")
	handle(context.Background(), env.bot, update)

	require.Empty(t, env.api.calls, "empty text should not trigger any API call")
}

func TestSelectModeHandler(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	env.store.addUser(100, database.ModeBrutal)
	handle := handlers.NewSelectModeHandler(env.deps)

	handle(context.Background(), env.bot, callbackUpdate(100, 55, "philosophical"))

	account, err := env.store.GetUser(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, database.ModePhilosophical, account.DefaultMode)

	body := env.api.lastBody(t, "editMessageText")
	require.Contains(t, body, "Mode updated")
	require.Contains(t, body, "philosophical")
	require.NotEmpty(t, env.api.callsTo("answerCallbackQuery"))
}

func TestSelectModeHandler_UnregisteredUser(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewSelectModeHandler(env.deps)

	handle(context.Background(), env.bot, callbackUpdate(100, 55, "brutal"))

	body := env.api.lastBody(t, "answerCallbackQuery")
	require.Contains(t, body, env.deps.Config.Messages.RegisterPrompt)
	require.Empty(t, env.api.callsTo("editMessageText"), "stale buttons must not edit the message")
}

func TestChangeModeHandler_ShowsModeKeyboard(t *testing.T) {
	t.Parallel()
	env := newHandlerEnv(t)
	handle := handlers.NewChangeModeHandler(env.deps)

	handle(context.Background(), env.bot, callbackUpdate(100, 55, "change_mode"))

	body := env.api.lastBody(t, "sendMessage")
	require.Contains(t, body, env.deps.Config.Messages.ChooseMode)
	for _, mode := range database.Modes() {
		require.True(t, strings.Contains(body, string(mode)),
			"mode keyboard should offer %q", mode)
	}
}

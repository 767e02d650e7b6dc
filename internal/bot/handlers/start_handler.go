package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/asqlan/brutalbot/internal/database"
)

// NewStartHandler returns a handler for the /start command. It idempotently
// registers the user with the default mode and replies with a status summary.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	user := update.Message.From
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", user.ID)

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	created, err := h.deps.Store.RegisterUser(dbCtx, user.ID, user.Username, database.ModeBrutal)
	if err != nil {
		log.ErrorContext(ctx, "Failed to register user", "error", err, "user_id", user.ID)
		replyText(ctx, b, h.deps, chatID, update.Message.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	account, err := h.deps.Store.GetUser(dbCtx, user.ID)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "Failed to load account after registration", "error", err, "user_id", user.ID)
		replyText(ctx, b, h.deps, chatID, update.Message.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	// "Registered: NO" means the account was only just created by this command.
	alreadyRegistered := "YES"
	if created {
		alreadyRegistered = "NO"
	}

	status := fmt.Sprintf(
		"Hello, I'm %s.\n"+
			"The bot that tells you the truth without mercy 😈\n\n"+
			"━━━━━━━━━━━━━━━\n"+
			"🤖 Bot Status: <code>ONLINE</code>\n"+
			"🆔 User ID: <code>%d</code>\n"+
			"✅ Registered: <code>%s</code>\n"+
			"🎭 Current Mode: <code>%s</code>\n"+
			"🎖 Plan: <code>%s</code>\n"+
			"📊 Usage: <code>%d / %d</code>\n"+
			"━━━━━━━━━━━━━━━",
		h.deps.Config.Telegram.BotName,
		user.ID,
		alreadyRegistered,
		strings.ToUpper(string(account.DefaultMode)),
		strings.ToUpper(string(account.Plan)),
		account.MessagesSent,
		account.DailyLimit,
	)

	sendCtx, cancelSend := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancelSend()

	_, err = b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            status,
		ParseMode:       models.ParseModeHTML,
		ReplyMarkup:     mainKeyboard(),
		ReplyParameters: &models.ReplyParameters{MessageID: update.Message.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send status message", "error", err, "chat_id", chatID)
	}
}

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command, replying with the
// caller's quota consumption.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	stats, err := h.deps.Store.GetStats(dbCtx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to get user stats", "error", err, "user_id", userID)
		replyText(ctx, b, h.deps, chatID, update.Message.ID, h.deps.Config.Messages.GeneralError)
		return
	}
	if stats == nil {
		replyText(ctx, b, h.deps, chatID, update.Message.ID, h.deps.Config.Messages.RegisterPrompt)
		return
	}

	text := fmt.Sprintf(
		"📊 Your usage\n\n"+
			"🎖 Plan: <code>%s</code>\n"+
			"✉️ Messages used: <code>%d / %d</code>\n"+
			"⏳ Remaining today: <code>%d</code>",
		strings.ToUpper(string(stats.Plan)),
		stats.MessagesSent,
		stats.DailyLimit,
		stats.Remaining,
	)

	sendCtx, cancelSend := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancelSend()

	_, err = b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ParseMode:       models.ParseModeHTML,
		ReplyParameters: &models.ReplyParameters{MessageID: update.Message.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send stats message", "error", err, "chat_id", chatID)
	}
}

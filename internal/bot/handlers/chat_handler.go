package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/asqlan/brutalbot/internal/gemini"
)

const (
	aiRequestTimeout   = 2 * time.Minute
	sendMessageTimeout = 10 * time.Second
	dbOperationTimeout = 5 * time.Second
)

// NewUpdateHandler creates the default handler for updates no registered
// handler matched: pre-checkout queries, successful-payment notifications,
// and plain text messages (the AI conversation path).
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	return updateHandler{deps}.Handle
}

type updateHandler struct {
	deps HandlerDeps
}

func (h updateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		handlePreCheckout(ctx, b, h.deps, update.PreCheckoutQuery)

	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		handleSuccessfulPayment(ctx, b, h.deps, update.Message)

	case update.Message != nil && update.Message.Text != "" && update.Message.From != nil:
		h.handleText(ctx, b, update.Message)
	}
}

// handleText is the conversation path: registration check, quota check,
// AI completion, usage accounting, reply.
func (h updateHandler) handleText(ctx context.Context, b *bot.Bot, msg *models.Message) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")

	userID := msg.From.ID
	chatID := msg.Chat.ID

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	account, err := deps.Store.GetUser(dbCtx, userID)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load account", "error", err, "user_id", userID)
		replyText(ctx, b, deps, chatID, msg.ID, deps.Config.Messages.GeneralError)
		return
	}
	if account == nil {
		replyText(ctx, b, deps, chatID, msg.ID, deps.Config.Messages.RegisterPrompt)
		return
	}

	if account.QuotaExceeded() {
		log.InfoContext(ctx, "Daily limit reached", "user_id", userID,
			"messages_sent", account.MessagesSent, "daily_limit", account.DailyLimit)

		limitText := fmt.Sprintf(
			"⚠️ You've reached your daily message limit!\n"+
				"<b>%d/%d</b> messages used.\n\n"+
				"Upgrade to premium for more messages!",
			account.MessagesSent, account.DailyLimit)

		sendCtx, cancelSend := context.WithTimeout(ctx, sendMessageTimeout)
		defer cancelSend()
		_, err = b.SendMessage(sendCtx, &bot.SendMessageParams{
			ChatID:          chatID,
			Text:            limitText,
			ParseMode:       models.ParseModeHTML,
			ReplyMarkup:     premiumKeyboard(),
			ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send limit message", "error", err, "chat_id", chatID)
		}
		return
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	aiCtx, cancelAI := context.WithTimeout(ctx, aiRequestTimeout)
	response, aiErr := deps.GeminiClient.GenerateReply(aiCtx, account.DefaultMode, msg.Text)
	cancelAI()

	if aiErr != nil {
		log.ErrorContext(ctx, "AI reply generation failed", "error", aiErr, "user_id", userID, "mode", account.DefaultMode)
		if errors.Is(aiErr, gemini.ErrEmptyResponse) {
			response = deps.Config.Messages.AIEmptyResponse
		} else {
			response = deps.Config.Messages.AIError
		}
	}

	// Usage is consumed whether or not the AI call succeeded; the quota
	// covers requests, not successful completions.
	dbCtx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
	if _, err := deps.Store.RecordMessage(dbCtx, userID, time.Now()); err != nil {
		log.ErrorContext(ctx, "Failed to record message", "error", err, "user_id", userID)
	}
	cancel()

	replyText(ctx, b, deps, chatID, msg.ID, response)
}

// replyText sends a plain text reply to a message with the standard send timeout.
func replyText(ctx context.Context, b *bot.Bot, deps HandlerDeps, chatID int64, replyTo int, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

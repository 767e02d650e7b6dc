package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/asqlan/brutalbot/internal/database"
)

// NewChangeModeHandler returns a handler for the change_mode callback,
// presenting the persona selection keyboard.
func NewChangeModeHandler(deps HandlerDeps) bot.HandlerFunc {
	return changeModeHandler{deps}.Handle
}

type changeModeHandler struct {
	deps HandlerDeps
}

func (h changeModeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "change_mode")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID, ok := callbackMessageRef(cq)
	if ok {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          chatID,
			Text:            h.deps.Config.Messages.ChooseMode,
			ReplyMarkup:     modeKeyboard(),
			ReplyParameters: &models.ReplyParameters{MessageID: messageID},
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send mode keyboard", "error", err, "chat_id", chatID)
		}
	} else {
		log.WarnContext(ctx, "Change mode callback on inaccessible message", "user_id", cq.From.ID)
	}

	answerCallback(ctx, b, h.deps, cq.ID, "", false)
}

// NewSelectModeHandler returns a handler for the persona selection callbacks
// (brutal, philosophical, sarcastic). The pressed button's data is the mode.
func NewSelectModeHandler(deps HandlerDeps) bot.HandlerFunc {
	return selectModeHandler{deps}.Handle
}

type selectModeHandler struct {
	deps HandlerDeps
}

func (h selectModeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "select_mode")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	mode := database.Mode(cq.Data)
	userID := cq.From.ID

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	ok, err := h.deps.Store.SetMode(dbCtx, userID, mode)
	if err != nil {
		log.ErrorContext(ctx, "Failed to set mode", "error", err, "user_id", userID, "mode", mode)
		answerCallback(ctx, b, h.deps, cq.ID, h.deps.Config.Messages.GeneralError, true)
		return
	}
	if !ok {
		// Stale button pressed by someone who never registered.
		answerCallback(ctx, b, h.deps, cq.ID, h.deps.Config.Messages.RegisterPrompt, true)
		return
	}

	log.InfoContext(ctx, "User mode updated", "user_id", userID, "mode", mode)

	if chatID, messageID, accessible := callbackMessageRef(cq); accessible {
		_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        fmt.Sprintf("✅ Mode updated to <b>%s</b>", mode),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: mainKeyboard(),
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to edit mode confirmation", "error", err, "chat_id", chatID)
		}
	}

	answerCallback(ctx, b, h.deps, cq.ID, "", false)
}

// callbackMessageRef extracts the chat and message IDs of the message a
// callback button was attached to. ok is false when the message is no longer
// accessible to the bot.
func callbackMessageRef(cq *models.CallbackQuery) (chatID int64, messageID int, ok bool) {
	if cq.Message.Type == models.MaybeInaccessibleMessageTypeMessage && cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID, cq.Message.Message.ID, true
	}
	if cq.Message.InaccessibleMessage != nil {
		return cq.Message.InaccessibleMessage.Chat.ID, 0, false
	}
	return 0, 0, false
}

func answerCallback(ctx context.Context, b *bot.Bot, deps HandlerDeps, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", callbackID)
	}
}

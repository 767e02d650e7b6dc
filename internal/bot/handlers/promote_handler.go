package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewPromoteHandler returns a handler for the admin-only /promote command,
// which grants the admin flag to a registered user by ID.
func NewPromoteHandler(deps HandlerDeps) bot.HandlerFunc {
	return promoteHandler{deps}.Handle
}

type promoteHandler struct {
	deps HandlerDeps
}

func (h promoteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "promote")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Promote handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) < 2 {
		replyText(ctx, b, h.deps, chatID, update.Message.ID, "Usage: /promote <user_id>")
		return
	}

	targetID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || targetID <= 0 {
		replyText(ctx, b, h.deps, chatID, update.Message.ID, "Invalid user ID. Usage: /promote <user_id>")
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	ok, err := h.deps.Store.PromoteToAdmin(dbCtx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to promote user", "error", err, "target_id", targetID)
		replyText(ctx, b, h.deps, chatID, update.Message.ID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !ok {
		replyText(ctx, b, h.deps, chatID, update.Message.ID, fmt.Sprintf("User %d is not registered.", targetID))
		return
	}

	log.InfoContext(ctx, "User promoted to admin", "target_id", targetID, "by", update.Message.From.ID)
	replyText(ctx, b, h.deps, chatID, update.Message.ID, fmt.Sprintf("✅ User %d is now an admin.", targetID))
}

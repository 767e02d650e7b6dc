// Package handlers contains Telegram bot command, callback, and message
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that only lets the configured admin user or
// users with the stored admin flag through. Everyone else gets a
// "not authorized" message and processing stops.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			userID := update.Message.From.ID
			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "AdminOnly")

			if userID == deps.Config.Telegram.AdminUserID {
				next(ctx, b, update)
				return
			}

			isAdmin, err := deps.Store.IsAdmin(ctx, userID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check admin status", "error", err, "user_id", userID)
			}
			if isAdmin {
				next(ctx, b, update)
				return
			}

			log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
			_, err = b.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   deps.Config.Messages.NotAuthorized,
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
			}
		}
	}
}

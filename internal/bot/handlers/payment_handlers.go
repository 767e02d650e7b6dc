package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/asqlan/brutalbot/internal/database"
)

// NewUpgradeHandler returns a handler for the upgrade callback, issuing a
// Telegram Stars invoice for the premium plan.
func NewUpgradeHandler(deps HandlerDeps) bot.HandlerFunc {
	return upgradeHandler{deps}.Handle
}

type upgradeHandler struct {
	deps HandlerDeps
}

func (h upgradeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "upgrade")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID, accessible := callbackMessageRef(cq)
	if !accessible {
		log.WarnContext(ctx, "Upgrade callback on inaccessible message", "user_id", cq.From.ID)
		answerCallback(ctx, b, h.deps, cq.ID, h.deps.Config.Messages.PaymentUnavailable, true)
		return
	}

	_, err := b.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      chatID,
		Title:       "Premium Subscription",
		Description: fmt.Sprintf("Upgrade to premium and raise your daily usage to %d messages with advanced features!", database.PremiumDailyLimit),
		Payload:     fmt.Sprintf("premium_upgrade_%d", cq.From.ID),
		Currency:    h.deps.Config.Payment.Currency,
		Prices: []models.LabeledPrice{
			{Label: "Premium Plan", Amount: h.deps.Config.Payment.PremiumPrice},
		},
		ReplyParameters: &models.ReplyParameters{MessageID: messageID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send invoice", "error", err, "chat_id", chatID, "user_id", cq.From.ID)
		answerCallback(ctx, b, h.deps, cq.ID, h.deps.Config.Messages.PaymentUnavailable, true)
		return
	}

	answerCallback(ctx, b, h.deps, cq.ID, "", false)
}

// NewDonateHandler returns a handler for the donate callback.
func NewDonateHandler(deps HandlerDeps) bot.HandlerFunc {
	return donateHandler{deps}.Handle
}

type donateHandler struct {
	deps HandlerDeps
}

func (h donateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	answerCallback(ctx, b, h.deps, update.CallbackQuery.ID, h.deps.Config.Messages.DonateComingSoon, true)
}

// handlePreCheckout approves every pre-checkout query. There is nothing to
// verify: the payload was issued by this bot and the plan change only happens
// on the successful-payment notification.
func handlePreCheckout(ctx context.Context, b *bot.Bot, deps HandlerDeps, q *models.PreCheckoutQuery) {
	log := deps.Logger.With("handler", "pre_checkout")

	_, err := b.AnswerPreCheckoutQuery(ctx, &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: q.ID,
		OK:                 true,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer pre-checkout query", "error", err, "user_id", q.From.ID)
		return
	}

	log.InfoContext(ctx, "Pre-checkout approved", "user_id", q.From.ID, "currency", q.Currency, "total_amount", q.TotalAmount)
}

// handleSuccessfulPayment upgrades the paying user to the premium plan and
// confirms the purchase.
func handleSuccessfulPayment(ctx context.Context, b *bot.Bot, deps HandlerDeps, msg *models.Message) {
	log := deps.Logger.With("handler", "successful_payment")

	if msg.From == nil || msg.SuccessfulPayment == nil {
		log.WarnContext(ctx, "Successful payment update with nil sender or payment info")
		return
	}

	userID := msg.From.ID
	payment := msg.SuccessfulPayment

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	ok, err := deps.Store.SetPlan(dbCtx, userID, database.PlanPremium, time.Now())
	if err != nil {
		log.ErrorContext(ctx, "Failed to upgrade plan after payment", "error", err, "user_id", userID)
		replyText(ctx, b, deps, msg.Chat.ID, msg.ID, deps.Config.Messages.GeneralError)
		return
	}
	if !ok {
		// Paid without ever registering; should not happen since the invoice
		// is only reachable from in-chat buttons.
		log.ErrorContext(ctx, "Successful payment for unknown user", "user_id", userID)
		replyText(ctx, b, deps, msg.Chat.ID, msg.ID, deps.Config.Messages.RegisterPrompt)
		return
	}

	log.InfoContext(ctx, "User upgraded to premium", "user_id", userID,
		"currency", payment.Currency, "total_amount", payment.TotalAmount)

	confirmation := fmt.Sprintf(
		"✅ Payment successful!\n\n"+
			"💳 Amount: %d %s\n"+
			"🎖 You now have premium access!\n"+
			"📊 Daily limit raised to %d messages\n\n"+
			"Thank you for your support! 🙏",
		payment.TotalAmount,
		payment.Currency,
		database.PremiumDailyLimit,
	)

	sendCtx, cancelSend := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancelSend()

	_, err = b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            confirmation,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send payment confirmation", "error", err, "chat_id", msg.Chat.ID)
	}
}

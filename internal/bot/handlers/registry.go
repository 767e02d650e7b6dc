package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/asqlan/brutalbot/internal/database"
)

// RegisteredHandler represents a handler with its match pattern and middleware.
// It encapsulates all information needed to register a command or callback.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllHandlers initializes and returns a map of all bot commands and
// callback handlers. Pre-checkout queries, successful payments, and plain
// text messages have no registrable handler type and are dispatched by the
// default update handler instead.
func RegisterAllHandlers(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/stats"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "stats",
		Handler:     NewStatsHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	adminMiddleware := []tgbot.Middleware{AdminOnly(deps)}

	handlers["/promote"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "promote",
		Handler:     NewPromoteHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  adminMiddleware,
	}

	handlers["change_mode"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "change_mode",
		Handler:     NewChangeModeHandler(deps),
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["upgrade"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "upgrade",
		Handler:     NewUpgradeHandler(deps),
		MatchType:   tgbot.MatchTypeExact,
	}
	handlers["donate"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "donate",
		Handler:     NewDonateHandler(deps),
		MatchType:   tgbot.MatchTypeExact,
	}

	for _, mode := range database.Modes() {
		handlers[string(mode)] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     string(mode),
			Handler:     NewSelectModeHandler(deps),
			MatchType:   tgbot.MatchTypeExact,
		}
	}

	return handlers
}

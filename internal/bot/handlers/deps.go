package handlers

import (
	"log/slog"

	"github.com/asqlan/brutalbot/internal/config"
	"github.com/asqlan/brutalbot/internal/database"
	"github.com/asqlan/brutalbot/internal/gemini"
)

// HandlerDeps provides dependencies for Telegram command and callback handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	GeminiClient gemini.Client
}

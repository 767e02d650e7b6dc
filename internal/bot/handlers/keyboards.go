package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/asqlan/brutalbot/internal/database"
)

// modeEmojis decorates the persona buttons.
var modeEmojis = map[database.Mode]string{
	database.ModeBrutal:        "😈",
	database.ModePhilosophical: "🧠",
	database.ModeSarcastic:     "😂",
}

func mainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "Change Mode", CallbackData: "change_mode"}},
			{{Text: "Updates Channel", URL: "https://t.me/asqlan"}},
			{{Text: "Donate Project", CallbackData: "donate"}},
		},
	}
}

func premiumKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔐 Upgrade Premium", CallbackData: "upgrade"}},
		},
	}
}

func modeKeyboard() *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(database.Modes()))
	for _, mode := range database.Modes() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: string(mode) + " " + modeEmojis[mode], CallbackData: string(mode)},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

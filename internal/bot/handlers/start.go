package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/keyboard"
	"github.com/strangerpair/roulette-bot/internal/i18n"
)

// NewStartHandler greets the user and shows the main menu. Registration
// itself happens in middleware, so repeat /start calls are harmless.
func NewStartHandler(t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		return c.Send(t.T("start.welcome"), keyboard.MainMenu(t))
	}
}

// NewHelpHandler sends the command reference.
func NewHelpHandler(t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		return c.Send(t.T("help"), keyboard.MainMenu(t))
	}
}

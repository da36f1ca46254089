// Package keyboard builds the localized reply keyboards shown to users.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/i18n"
)

// MainMenu builds the reply keyboard shown while the user is idle.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	findBtn := markup.Text(lookup(t, "keyboard.find_partner"))
	helpBtn := markup.Text(lookup(t, "keyboard.help"))

	markup.Reply(
		markup.Row(findBtn),
		markup.Row(helpBtn),
	)

	return markup
}

// ChatMenu builds the reply keyboard shown during an active chat.
func ChatMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	endBtn := markup.Text(lookup(t, "keyboard.end_chat"))
	reportBtn := markup.Text(lookup(t, "keyboard.report"))

	markup.Reply(
		markup.Row(endBtn, reportBtn),
	)

	return markup
}

func lookup(t i18n.Translator, key string) string {
	if t == nil {
		return key
	}
	return t.T(key)
}

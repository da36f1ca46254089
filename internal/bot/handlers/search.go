package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/chat"
)

// NewSearchHandler starts a partner search. The session manager delivers all
// replies through its notifier (searching confirmation, or the match
// announcement to both sides), so the handler only surfaces rejections.
func NewSearchHandler(chats *chat.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("search handler invoked without sender")
			return nil
		}

		_, err := chats.RequestMatch(context.Background(), c.Sender().ID)
		return err
	}
}

// NewEndHandler leaves the queue or ends the active chat, whichever the user
// is in. Replies are delivered through the session manager's notifier.
func NewEndHandler(chats *chat.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("end handler invoked without sender")
			return nil
		}

		_, err := chats.EndChat(context.Background(), c.Sender().ID)
		return err
	}
}

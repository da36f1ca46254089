package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/keyboard"
	"github.com/strangerpair/roulette-bot/internal/chat"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/i18n"
)

// Dispatcher delivers outbound events over the Telegram API. It is the
// transport side of chat.Notifier: localized texts, the right reply keyboard
// for the user's new situation, and anonymous copies for relayed messages.
type Dispatcher struct {
	api *telebot.Bot
	t   i18n.Translator
	log *slog.Logger
}

// NewDispatcher builds the outbound dispatcher.
func NewDispatcher(api *telebot.Bot, t i18n.Translator, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{api: api, t: t, log: log}
}

var _ chat.Notifier = (*Dispatcher)(nil)

// MatchFound announces the new partner and switches to the in-chat keyboard.
func (d *Dispatcher) MatchFound(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("search.matched"), keyboard.ChatMenu(d.t))
}

// Searching confirms the queue placement.
func (d *Dispatcher) Searching(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("search.searching"))
}

// SearchCancelled confirms the user left the queue.
func (d *Dispatcher) SearchCancelled(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("search.cancelled"), keyboard.MainMenu(d.t))
}

// SearchExpired tells the user their stale queue entry was evicted.
func (d *Dispatcher) SearchExpired(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("search.expired"), keyboard.MainMenu(d.t))
}

// ChatEnded confirms the teardown to the initiator.
func (d *Dispatcher) ChatEnded(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("chat.ended"), keyboard.MainMenu(d.t))
}

// PartnerLeft tells the other side their partner disconnected.
func (d *Dispatcher) PartnerLeft(ctx context.Context, userID int64) error {
	return d.send(userID, d.t.T("chat.partner_left"), keyboard.MainMenu(d.t))
}

// Broadcast delivers an admin announcement to one recipient.
func (d *Dispatcher) Broadcast(ctx context.Context, userID int64, text string) error {
	return d.send(userID, text)
}

// Relay copies the payload to the partner. Copy, not Forward: a forwarded
// message carries the sender's identity, a copy stays anonymous.
func (d *Dispatcher) Relay(ctx context.Context, toID int64, payload chat.Payload) error {
	msg, ok := payload.(telebot.Editable)
	if !ok {
		return fmt.Errorf("unsupported relay payload %T", payload)
	}

	if _, err := d.api.Copy(&telebot.User{ID: toID}, msg); err != nil {
		return apperrors.NewTransportError(err)
	}

	return nil
}

func (d *Dispatcher) send(userID int64, text string, opts ...interface{}) error {
	if _, err := d.api.Send(&telebot.User{ID: userID}, text, opts...); err != nil {
		return apperrors.NewTransportError(err)
	}

	return nil
}

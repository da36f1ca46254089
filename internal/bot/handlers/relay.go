package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/i18n"
)

// NewRelayHandler forwards any non-command message to the sender's current
// partner. Rejections surface as errors and the reply middleware turns them
// into hints.
func NewRelayHandler(chats *chat.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Message() == nil {
			return nil
		}

		_, err := chats.RelayMessage(context.Background(), c.Sender().ID, c.Message())
		return err
	}
}

// NewReportHandler files an abuse report against the current partner. The
// reason is everything after the command.
func NewReportHandler(reports ReportFiler, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		reason := CommandArgs(c.Text())
		if reason == "" {
			return c.Send(t.T("report.usage"))
		}

		if _, err := reports.File(context.Background(), c.Sender().ID, reason); err != nil {
			return err
		}

		return c.Send(t.T("report.filed"))
	}
}

// ReportFiler is the part of the report registry the handler needs.
type ReportFiler interface {
	File(ctx context.Context, reporterID int64, reason string) (int64, error)
}

package handlers

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/i18n"
	"github.com/strangerpair/roulette-bot/internal/moderation"
)

// NewStatsHandler replies with the aggregate directory snapshot.
func NewStatsHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		stats, err := mod.Stats(context.Background())
		if err != nil {
			return err
		}

		return c.Send(t.Tf("admin.stats",
			stats.TotalUsers,
			stats.ActiveSessions,
			stats.QueueDepth,
			stats.BlockedUsers,
			stats.PendingReports,
		))
	}
}

// NewBlockHandler blocks the user given as argument and tears down whatever
// chat or search they were in.
func NewBlockHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		userID, ok := ParseUserID(CommandArgs(c.Text()))
		if !ok {
			return c.Send(t.T("admin.block_usage"))
		}

		if err := mod.BlockUser(context.Background(), userID); err != nil {
			if stdErrors.Is(err, apperrors.ErrUserNotFound) {
				return c.Send(t.Tf("admin.user_not_found", userID))
			}
			return err
		}

		return c.Send(t.Tf("admin.blocked", userID))
	}
}

// NewUnblockHandler clears the block flag for the user given as argument.
func NewUnblockHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		userID, ok := ParseUserID(CommandArgs(c.Text()))
		if !ok {
			return c.Send(t.T("admin.unblock_usage"))
		}

		if err := mod.UnblockUser(context.Background(), userID); err != nil {
			if stdErrors.Is(err, apperrors.ErrUserNotFound) {
				return c.Send(t.Tf("admin.user_not_found", userID))
			}
			return err
		}

		return c.Send(t.Tf("admin.unblocked", userID))
	}
}

// NewBroadcastHandler sends the argument text to every non-blocked user.
func NewBroadcastHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		text := CommandArgs(c.Text())
		if text == "" {
			return c.Send(t.T("admin.broadcast_usage"))
		}

		sent, total, err := mod.Broadcast(context.Background(), text)
		if err != nil {
			return err
		}

		return c.Send(t.Tf("admin.broadcast_done", sent, total))
	}
}

// NewChatsHandler lists the active sessions and the waiting queue.
func NewChatsHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		ctx := context.Background()
		sessions, err := mod.ListSessions(ctx)
		if err != nil {
			return err
		}
		queue, err := mod.ListQueue(ctx)
		if err != nil {
			return err
		}

		if len(sessions) == 0 && len(queue) == 0 {
			return c.Send(t.T("admin.chats_empty"))
		}

		lines := make([]string, 0, len(sessions)+len(queue)+2)
		lines = append(lines, t.Tf("admin.chats_header", len(sessions)))
		for _, s := range sessions {
			lines = append(lines, t.Tf("admin.chat_line", s.UserA, s.UserB))
		}
		lines = append(lines, t.Tf("admin.queue_header", len(queue)))
		for _, entry := range queue {
			lines = append(lines, t.Tf("admin.queue_line", entry.UserID))
		}

		return c.Send(strings.Join(lines, "\n"))
	}
}

// NewReportsHandler lists open abuse reports, most recent first.
func NewReportsHandler(mod *moderation.Service, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		reports, err := mod.ListReports(context.Background(), 0)
		if err != nil {
			return err
		}

		if len(reports) == 0 {
			return c.Send(t.T("admin.reports_empty"))
		}

		lines := make([]string, 0, len(reports)+1)
		lines = append(lines, t.T("admin.reports_header"))
		for _, r := range reports {
			lines = append(lines, t.Tf("admin.report_line", r.ID, r.ReporterID, r.ReportedID, r.Reason))
		}

		return c.Send(strings.Join(lines, "\n"))
	}
}

package bot

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/handlers"
	"github.com/strangerpair/roulette-bot/internal/directory"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/i18n"
	"github.com/strangerpair/roulette-bot/internal/ratelimit"
	"github.com/strangerpair/roulette-bot/pkg/config"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
)

// RecoveryMiddleware catches panics, reports them via the centralized handler,
// and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler, t i18n.Translator) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					if errHandler != nil {
						errHandler.Handle(context.Background(), fmt.Errorf("panic recovered: %v", r))
					}

					if c != nil {
						if sendErr := c.Send(t.T("errors.internal")); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorReplyMiddleware centralizes error reporting and user messaging for
// handler failures. Domain rejections become localized informational replies;
// operational failures become a generic apology after logging and reporting.
func ErrorReplyMiddleware(errHandler *apperrors.Handler, t i18n.Translator) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if errHandler != nil {
				errHandler.Handle(context.Background(), err)
			}

			if c != nil {
				_ = c.Send(t.T(replyKeyFor(err)))
			}

			return nil
		}
	}
}

// replyKeyFor maps an error to the i18n key of the user-facing reply.
func replyKeyFor(err error) string {
	switch {
	case stdErrors.Is(err, apperrors.ErrAlreadySearching):
		return "search.already_searching"
	case stdErrors.Is(err, apperrors.ErrAlreadyInChat):
		return "search.already_in_chat"
	case stdErrors.Is(err, apperrors.ErrNotInChatOrQueue):
		return "chat.not_in_chat_or_queue"
	case stdErrors.Is(err, apperrors.ErrNotInChat):
		return "chat.not_in_chat"
	case stdErrors.Is(err, apperrors.ErrRateLimited):
		return "limits.too_fast"
	case stdErrors.Is(err, apperrors.ErrNoActiveChatToReport):
		return "report.no_active_chat"
	case stdErrors.Is(err, apperrors.ErrUserBlocked):
		return "blocked"
	case stdErrors.Is(err, apperrors.ErrNotAuthorized):
		return "admin.not_authorized"
	case stdErrors.Is(err, apperrors.ErrDeliveryFailed):
		return "errors.delivery"
	default:
		return "errors.internal"
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates and records
// command metrics.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			command := "message"
			if c != nil {
				if cmd, ok := c.Get(handlers.CommandKey).(string); ok && cmd != "" {
					command = cmd
				}
			}

			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordCommand(command, status, time.Since(start))

			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("command", command),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// EnsureUserMiddleware registers the sender in the directory on first contact
// so every later lookup finds a row.
func EnsureUserMiddleware(users *directory.Service, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if users == nil || c == nil || c.Sender() == nil {
				return next(c)
			}

			userID := c.Sender().ID
			if err := users.Register(context.Background(), userID); err != nil {
				log.Error("failed to register user", slog.Int64("user_id", userID), slog.Any("error", err))
				return err
			}

			return next(c)
		}
	}
}

// CooldownMiddleware throttles commands. Plain messages pass through; the
// relay path has its own per-minute limit.
func CooldownMiddleware(guard *ratelimit.Guard, t i18n.Translator, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if guard == nil || c == nil || c.Sender() == nil {
				return next(c)
			}

			cmd, _ := c.Get(handlers.CommandKey).(string)
			if cmd == "" {
				return next(c)
			}

			allowed, err := guard.AllowCommand(context.Background(), c.Sender().ID)
			if err != nil {
				return err
			}
			if !allowed {
				metrics.RecordRateLimited("command")
				return c.Send(t.T("limits.cooldown"))
			}

			return next(c)
		}
	}
}

// AdminOnly wraps a handler so that only configured operators can invoke it.
// Everyone else gets a refusal reply.
func AdminOnly(admins *config.AdminList, t i18n.Translator) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if c == nil || c.Sender() == nil {
				return nil
			}

			if admins == nil || !admins.Contains(c.Sender().ID) {
				return c.Send(t.T("admin.not_authorized"))
			}

			return next(c)
		}
	}
}

// Package bot wires the Telegram transport: update routing, middleware, and
// outbound delivery for the anonymous chat roulette.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/handlers"
	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/directory"
	apperrors "github.com/strangerpair/roulette-bot/internal/errors"
	"github.com/strangerpair/roulette-bot/internal/i18n"
	"github.com/strangerpair/roulette-bot/internal/moderation"
	"github.com/strangerpair/roulette-bot/internal/ratelimit"
	"github.com/strangerpair/roulette-bot/internal/report"
	"github.com/strangerpair/roulette-bot/pkg/config"
)

// Bot wraps telebot.Bot with the application services that handle updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	dispatcher *Dispatcher
	errHandler *apperrors.Handler
	t          i18n.Translator
}

// New builds a telegram bot instance configured according to the application
// settings. The returned Dispatcher must be handed to the session manager as
// its notifier before Start is called.
func New(
	cfg config.Config,
	log *slog.Logger,
	translations *i18n.Manager,
	users *directory.Service,
	guard *ratelimit.Guard,
) (*Bot, *Dispatcher, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == config.BotModeWebhook {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telebot: %w", err)
	}

	t := translations.Translator(cfg.Bot.Language)
	dispatcher := NewDispatcher(tb, t, log)
	router := NewRouter(log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     router,
		dispatcher: dispatcher,
		errHandler: errHandler,
		t:          t,
	}

	b.setupMiddlewares(users, guard)
	b.registerTelebotHandlers()

	return b, dispatcher, nil
}

// RegisterHandlers binds the command surface to the application services.
// Split from New because the session manager needs the Dispatcher first.
func (b *Bot) RegisterHandlers(
	chats *chat.Service,
	reports *report.Service,
	mod *moderation.Service,
	admins *config.AdminList,
) {
	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.t, b.log))
	b.router.RegisterCommand(CommandSearch, handlers.NewSearchHandler(chats, b.log))
	b.router.RegisterCommand(CommandEnd, handlers.NewEndHandler(chats, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.t))
	b.router.RegisterCommand(CommandReport, handlers.NewReportHandler(reports, b.t, b.log))

	adminOnly := AdminOnly(admins, b.t)
	b.router.RegisterCommand(CommandAdminStats, adminOnly(handlers.NewStatsHandler(mod, b.t, b.log)))
	b.router.RegisterCommand(CommandAdminBlock, adminOnly(handlers.NewBlockHandler(mod, b.t, b.log)))
	b.router.RegisterCommand(CommandAdminUnblock, adminOnly(handlers.NewUnblockHandler(mod, b.t, b.log)))
	b.router.RegisterCommand(CommandAdminBroadcast, adminOnly(handlers.NewBroadcastHandler(mod, b.t, b.log)))
	b.router.RegisterCommand(CommandAdminReports, adminOnly(handlers.NewReportsHandler(mod, b.t, b.log)))
	b.router.RegisterCommand(CommandAdminChats, adminOnly(handlers.NewChatsHandler(mod, b.t, b.log)))

	b.router.RegisterAlias(b.t.T("keyboard.find_partner"), CommandSearch)
	b.router.RegisterAlias(b.t.T("keyboard.end_chat"), CommandEnd)
	b.router.RegisterAlias(b.t.T("keyboard.report"), CommandReport)
	b.router.RegisterAlias(b.t.T("keyboard.help"), CommandHelp)

	b.router.SetDefault(handlers.NewRelayHandler(chats, b.log))
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such
// as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupMiddlewares(users *directory.Service, guard *ratelimit.Guard) {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, b.t))
	b.router.Use(ErrorReplyMiddleware(b.errHandler, b.t))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(EnsureUserMiddleware(users, b.log))
	b.router.Use(CooldownMiddleware(guard, b.t, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnPhoto, b.router.Route)
	b.telebot.Handle(telebot.OnVideo, b.router.Route)
	b.telebot.Handle(telebot.OnVoice, b.router.Route)
	b.telebot.Handle(telebot.OnAudio, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)
	b.telebot.Handle(telebot.OnSticker, b.router.Route)
	b.telebot.Handle(telebot.OnVideoNote, b.router.Route)
	b.telebot.Handle(telebot.OnAnimation, b.router.Route)
	b.telebot.Handle(telebot.OnLocation, b.router.Route)
	b.telebot.Handle(telebot.OnContact, b.router.Route)
}

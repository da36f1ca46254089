package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/handlers"
)

// Router dispatches commands, keyboard button presses, and plain messages.
// Plain messages fall through to the default handler, the partner relay.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	aliases        map[string]string
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		aliases:     make(map[string]string),
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterAlias maps a reply keyboard button label to a registered command,
// so button presses behave exactly like typing the command.
func (r *Router) RegisterAlias(label, cmd string) {
	if label == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[label] = cmd
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for non-command messages.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	text := c.Text()

	if cmd := r.resolveCommand(text); cmd != "" {
		if handler := r.getCommandHandler(cmd); handler != nil {
			c.Set(handlers.CommandKey, cmd)
			return r.executeHandler(handler, c)
		}
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

// resolveCommand maps the message text to a command name: either the first
// token of a slash command (with any @botname suffix stripped) or a keyboard
// button alias. Returns "" for plain messages.
func (r *Router) resolveCommand(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.HasPrefix(text, "/") {
		cmd := text
		if idx := strings.IndexAny(cmd, " \n"); idx >= 0 {
			cmd = cmd[:idx]
		}
		if idx := strings.Index(cmd, "@"); idx >= 0 {
			cmd = cmd[:idx]
		}
		return cmd
	}

	r.mu.RLock()
	cmd := r.aliases[text]
	r.mu.RUnlock()
	return cmd
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

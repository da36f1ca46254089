package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/strangerpair/roulette-bot/internal/bot/handlers"
)

func TestResolveCommand(t *testing.T) {
	r := NewRouter(nil)
	r.RegisterAlias("🔍 Find a partner", "/search")
	r.RegisterAlias("❌ End chat", "/end")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare command", "/start", "/start"},
		{"command with args", "/report spam links", "/report"},
		{"command with botname suffix", "/start@RouletteBot", "/start"},
		{"botname and args", "/admin_block@RouletteBot 42", "/admin_block"},
		{"newline after command", "/admin_broadcast\nhello", "/admin_broadcast"},
		{"surrounding whitespace", "  /end  ", "/end"},
		{"keyboard button", "🔍 Find a partner", "/search"},
		{"second button", "❌ End chat", "/end"},
		{"plain message", "hey stranger", ""},
		{"empty text", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.resolveCommand(tt.text))
		})
	}
}

func TestRegisterAlias_IgnoresEmptyLabel(t *testing.T) {
	r := NewRouter(nil)
	r.RegisterAlias("", "/search")

	assert.Equal(t, "", r.resolveCommand(""))
}

func TestApplyMiddlewares_WrapsInRegistrationOrder(t *testing.T) {
	r := NewRouter(nil)

	var order []string
	mw := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	r.Use(mw("outer"))
	r.Use(mw("inner"))

	handler := func(c telebot.Context) error {
		order = append(order, "handler")
		return nil
	}

	wrapped := r.applyMiddlewares(handler)
	require.NotNil(t, wrapped)
	require.NoError(t, wrapped(nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestApplyMiddlewares_NilHandler(t *testing.T) {
	r := NewRouter(nil)
	r.Use(func(next handlers.Handler) handlers.Handler { return next })

	assert.Nil(t, r.applyMiddlewares(nil))
}

func TestGetCommandHandler(t *testing.T) {
	r := NewRouter(nil)
	called := false
	r.RegisterCommand("/start", func(c telebot.Context) error {
		called = true
		return nil
	})

	h := r.getCommandHandler("/start")
	require.NotNil(t, h)
	require.NoError(t, h(nil))
	assert.True(t, called)

	assert.Nil(t, r.getCommandHandler("/unknown"))
}

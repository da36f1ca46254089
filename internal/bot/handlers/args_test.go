package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no args", "/search", ""},
		{"single arg", "/admin_block 42", "42"},
		{"multi word reason", "/report spam and abusive links", "spam and abusive links"},
		{"newline separated", "/broadcast line one\nline two", "line one\nline two"},
		{"extra whitespace", "  /report   spam  ", "spam"},
		{"plain text", "hello there", ""},
		{"button label", "🔍 Find a partner", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandArgs(tt.text))
		})
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name   string
		arg    string
		wantID int64
		wantOK bool
	}{
		{"valid", "123456789", 123456789, true},
		{"padded", "  42  ", 42, true},
		{"zero", "0", 0, false},
		{"negative", "-7", 0, false},
		{"not a number", "bob", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseUserID(tt.arg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

package handlers

import (
	"strconv"
	"strings"
)

// CommandArgs returns everything after the command token, trimmed. It works
// for both "/report spam" and bare button presses (which have no args).
func CommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	idx := strings.IndexAny(text, " \n")
	if idx < 0 {
		return ""
	}

	return strings.TrimSpace(text[idx:])
}

// ParseUserID parses a numeric Telegram user id argument.
func ParseUserID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

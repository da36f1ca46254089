package domain

import "time"

// User is an anonymous chat participant keyed by their Telegram identifier.
// Users are created on first contact and never deleted; abusive users are
// soft-blocked instead.
type User struct {
	ID              int64
	Blocked         bool
	PartnerID       *int64
	TotalChats      int
	ReportsReceived int
	JoinedAt        time.Time
}

// InChat reports whether the user currently has an active chat partner.
func (u *User) InChat() bool {
	return u != nil && u.PartnerID != nil
}

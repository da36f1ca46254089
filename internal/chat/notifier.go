package chat

import "context"

// Payload is an opaque message payload relayed between partners. The core
// never inspects its content; the transport layer knows how to copy it.
type Payload any

// Notifier is the outbound edge of the core: every user-visible event is
// emitted through it and delivered by the transport dispatcher. Delivery
// failures are per-recipient and non-fatal unless stated otherwise.
type Notifier interface {
	// MatchFound tells the user a partner was connected.
	MatchFound(ctx context.Context, userID int64) error
	// Searching tells the user they were placed in the waiting queue.
	Searching(ctx context.Context, userID int64) error
	// SearchCancelled confirms the user left the waiting queue.
	SearchCancelled(ctx context.Context, userID int64) error
	// SearchExpired tells the user their stale queue entry was evicted.
	SearchExpired(ctx context.Context, userID int64) error
	// ChatEnded confirms to the initiator that their chat is over.
	ChatEnded(ctx context.Context, userID int64) error
	// PartnerLeft tells the other side their partner disconnected.
	PartnerLeft(ctx context.Context, userID int64) error
	// Broadcast delivers an admin announcement to one recipient.
	Broadcast(ctx context.Context, userID int64, text string) error
	// Relay copies an opaque payload to the partner.
	Relay(ctx context.Context, toID int64, payload Payload) error
}

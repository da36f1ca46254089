package domain

import "time"

// Session is an active one-on-one pairing between two users. A session row
// exists iff both members' partner pointers reference each other.
type Session struct {
	ID        int64
	UserA     int64
	UserB     int64
	StartedAt time.Time
}

// QueueEntry is a user waiting to be paired. Entries are consumed strictly
// FIFO by (EnqueuedAt, insertion order).
type QueueEntry struct {
	UserID     int64
	EnqueuedAt time.Time
}

// Report is an abuse report filed by one chat member against their current
// partner. Append-only except for the resolution flag.
type Report struct {
	ID         int64
	ReporterID int64
	ReportedID int64
	Reason     string
	CreatedAt  time.Time
	Resolved   bool
}

// Stats is an aggregate snapshot surfaced to operators.
type Stats struct {
	TotalUsers     int
	ActiveSessions int
	QueueDepth     int
	BlockedUsers   int
	PendingReports int
}

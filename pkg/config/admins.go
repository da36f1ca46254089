package config

import "sync"

// AdminList is a concurrency-safe view of the admin allow-list that can be
// swapped wholesale when the configuration file is reloaded.
type AdminList struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

// NewAdminList builds an AdminList from the configured identities.
func NewAdminList(ids []int64) *AdminList {
	l := &AdminList{}
	l.Replace(ids)
	return l
}

// Contains reports whether the identity is an admin.
func (l *AdminList) Contains(userID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[userID]
	return ok
}

// Replace swaps the entire allow-list.
func (l *AdminList) Replace(ids []int64) {
	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}

	l.mu.Lock()
	l.ids = next
	l.mu.Unlock()
}

// Len returns the number of configured admins.
func (l *AdminList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

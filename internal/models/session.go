package models

import (
	"time"
)

// Session describes one live real-time connection. It lives only in the
// hub's memory and is rebuilt from zero on restart.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Role         Role      `json:"role,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Anonymous reports whether no identity has been bound yet.
func (s *Session) Anonymous() bool {
	return s.UserID == ""
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		ConnectedAt:  now,
		LastActiveAt: now,
	}
}

package entity

import "time"

// Session is the server side record backing a pair of tokens.
// Tokens are only honoured while their sid matches SessionID.
type Session struct {
	UserID    string
	SessionID string
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

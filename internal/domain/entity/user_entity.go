package entity

import (
	"time"
)

// User is the aggregate root for accounts.
// Password holds the bcrypt hash, never the raw credential.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	Role      Role
	Bio       string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

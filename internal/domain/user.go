package domain

import "time"

// User is an account that owns tags and bookmarks. Accounts are created
// by the external auth provider; the server only mirrors identity.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

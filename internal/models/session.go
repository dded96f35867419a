package models

import "time"

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the locally persisted authentication state. ExpiresAt is zero
// when the token carries no readable expiry.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

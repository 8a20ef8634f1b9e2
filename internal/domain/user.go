package domain

import "time"

type User struct {
	ID        string     `json:"id"`
	Username  *string    `json:"username"`
	Email     *string    `json:"email"`
	IsAdmin   *bool      `json:"is_admin"`
	CreatedAt *time.Time `json:"created_at"`
}

// Admin reports the effective flag; an absent flag counts as false.
func (u User) Admin() bool { return u.IsAdmin != nil && *u.IsAdmin }

// Identity is the authenticated principal behind a session.
type Identity struct {
	ID    string
	Email string
}

type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}

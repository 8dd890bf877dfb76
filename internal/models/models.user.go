// FilePath: internal/models/models.user.go
package models

import "time"

// User is an account owning sensors. The password is only ever stored as a
// salted bcrypt hash and is readable by the system role alone.
type User struct {
	ID           int64     `json:"id" db:"id" readxs:"owner,system" writexs:"system"`
	Username     string    `json:"username" db:"username" readxs:"owner,system" writexs:"owner,system"`
	Email        string    `json:"email" db:"email" readxs:"owner,system" writexs:"owner,system"`
	PasswordHash string    `json:"-" db:"password_hash" readxs:"system" writexs:"system"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" readxs:"owner,system" writexs:"system"`
}

// TokenPair is a freshly issued access/refresh pair
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is the payload returned by register and login
type Session struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewSession combines an issued token pair with the user's public identity
func NewSession(tokens TokenPair, user *User) *Session {
	return &Session{
		Access:   tokens.Access,
		Refresh:  tokens.Refresh,
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

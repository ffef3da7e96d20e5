// Package models defines the server-side data models persisted in the
// database and returned over the API.
package models

import "time"

// DefaultRole is assigned to every registered user.
const DefaultRole = "User"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Role         string     `db:"role"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an admin account that can authenticate against the API
// and the dashboard.
//
// PasswordHash holds the bcrypt hash of the user's password. It is tagged
// `json:"-"` so it can never leak into an API response, no matter which
// handler serializes the struct.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

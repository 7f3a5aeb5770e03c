// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered household account.
//
// IDs are SQLite INTEGER PRIMARY KEYs. The HTTP surface addresses users by this
// number (/get_list/{user_id}), so there is no separate public identifier.
//
// PasswordHash is tagged json:"-" so a User can never leak its bcrypt hash,
// even if a handler encodes the struct directly.
type User struct {
	ID           int64     `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"` // E.164, e.g. "+15551234567"
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
}

package model

import "time"

// UserID uniquely identifies a human user across the system
type UserID string

// User is the identity resolved for an authenticated request.
// The room core never mutates it.
type User struct {
	ID          UserID
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
}

package models

import "time"

// User is a registered account. Users are immutable after registration.
type User struct {
	ID           string    `json:"id" badgerhold:"key"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

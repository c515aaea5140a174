package users

import "time"

// User is a registered account able to submit locations.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Credentials carries the username/password pair supplied by a caller.
type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

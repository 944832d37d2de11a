package identity

import "time"

// User represents a registered wallet owner.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials is the registration/login request structure.
type Credentials struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

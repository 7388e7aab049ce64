package auth

import "time"

// Credential is the authentication view of a user account. It carries
// the password hash and is never serialized to clients.
type Credential struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

// SessionRecord is the audit row persisted for each established login.
type SessionRecord struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

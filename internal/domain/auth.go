// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User is a caregiver allowed to use the web front end.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session represents an active web session.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// ChatPairing tracks a chat identity and whether it entered the secret
// phrase that grants access to the bot.
type ChatPairing struct {
	ChatUserID    int64
	FirstName     string
	LastName      string
	LoginAttempts int
	Allowed       bool
	UpdatedAt     time.Time
}

// PairingRepository persists chat pairings. GetPairing returns nil, nil when
// the identity is unknown.
type PairingRepository interface {
	GetPairing(ctx context.Context, chatUserID int64) (*ChatPairing, error)
	SavePairing(ctx context.Context, p ChatPairing) error
}

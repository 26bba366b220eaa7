package model

import (
	"context"
	"time"
)

// Message is a single persisted message of a chat session.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	MessageID string    `json:"message_id,omitempty"`
}

// ChatSession is the long-lived record for one conversation. The effective
// model context is computed by cropping the tail of Messages; no separate
// memory field is stored.
type ChatSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsActive     bool      `json:"is_active"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionUpdate lists the fields an update may touch. Nil fields are left
// unchanged.
type SessionUpdate struct {
	Title        *string
	Messages     []Message
	MessageCount *int
}

// SessionRepository is the external session storage boundary. Sessions are
// soft-deleted, never physically removed.
type SessionRepository interface {
	// GetOrCreate returns the session with the given ID, creating it first
	// when it does not exist. An empty ID creates a session with a fresh ID.
	GetOrCreate(ctx context.Context, sessionID string) (*ChatSession, error)

	// Get returns the session or nil when it does not exist.
	Get(ctx context.Context, sessionID string) (*ChatSession, error)

	// Update applies the partial update to an existing session.
	Update(ctx context.Context, sessionID string, update SessionUpdate) error

	// List returns active sessions ordered by last update, newest first.
	List(ctx context.Context, limit, offset int) ([]SessionSummary, error)

	// SoftDelete flags the session inactive. Returns false when the session
	// does not exist.
	SoftDelete(ctx context.Context, sessionID string) (bool, error)
}

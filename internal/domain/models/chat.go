package models

import (
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionTitle is the title a session carries until the first user
// message overwrites it.
const DefaultSessionTitle = "New Chat"

// ChatSession is a Q&A thread scoped to exactly one analysis record.
// Sessions have no terminal state; they can always receive more messages.
type ChatSession struct {
	ID         string    `json:"id" db:"id"`
	AnalysisID string    `json:"analysis_id" db:"analysis_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Title      string    `json:"title" db:"title"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ChatMessage is one turn in a session's append-only log, ordered by CreatedAt.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

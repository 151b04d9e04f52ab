// ABOUTME: Store interface and data types for per-user conversation memory
// ABOUTME: Defines Turn, role constants, and sentinel errors shared by all backends

package memory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned when a memory backend cannot be reached
var ErrUnavailable = errors.New("memory backend unavailable")

// Role constants for conversation turns
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one stored exchange fragment: a single utterance by either the
// user or an agent, keyed by the owning user.
type Turn struct {
	ID        string
	UserID    string
	Role      string // "user" or "assistant"
	Text      string
	CreatedAt time.Time
}

// Store is the contract every memory backend satisfies.
//
// Recent returns turns most-recent-first. Implementations must guarantee
// isolation: Recent(u1) never contains turns written under a different
// user id.
type Store interface {
	Append(ctx context.Context, userID, role, text string) error
	Recent(ctx context.Context, userID string, limit int) ([]Turn, error)
	HasHistory(ctx context.Context, userID string) (bool, error)
	Close() error
}

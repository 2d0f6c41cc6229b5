// Package storage defines persistence contracts for onboarding service state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

var (
	// ErrNotFound indicates a requested onboarding record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Session is one user's in-progress shop setup.
type Session struct {
	ID          string
	UserID      string
	CurrentStep domain.Step
	Phase       domain.Phase
	Form        domain.FormState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionStore persists wizard sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// ListSessions returns userID's sessions, most recently updated first.
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	UpdateSession(ctx context.Context, session Session) error
	// DeleteSession removes a session and its ledger entries.
	DeleteSession(ctx context.Context, id string) error
	// DeleteStaleSessions removes sessions last updated before cutoff and
	// returns how many were removed.
	DeleteStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResourceKind names a remote resource created during a submission.
type ResourceKind string

const (
	ResourceStore   ResourceKind = "store"
	ResourceAddress ResourceKind = "address"
	ResourceImage   ResourceKind = "image"
	// ResourceApplication is a submit-for-review; it is never compensated.
	ResourceApplication ResourceKind = "application"
)

// LedgerEntry records a remote resource created by one submission action,
// so retries can update it instead of creating a duplicate.
type LedgerEntry struct {
	SessionID  string
	ActionKey  string
	Kind       ResourceKind
	StoreID    domain.StoreID
	ResourceID int64
	CreatedAt  time.Time
}

// LedgerStore persists submission ledger entries keyed by (session, action).
type LedgerStore interface {
	// RecordResource inserts or replaces the entry for its key.
	RecordResource(ctx context.Context, entry LedgerEntry) error
	GetResource(ctx context.Context, sessionID, actionKey string) (LedgerEntry, error)
	// ListResources returns a session's entries in creation order.
	ListResources(ctx context.Context, sessionID string) ([]LedgerEntry, error)
	DeleteResource(ctx context.Context, sessionID, actionKey string) error
}

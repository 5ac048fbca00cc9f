package store

import (
	"context"
	"errors"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
//
// Every operation is atomic with respect to its own key: the pipeline
// relies on this for the one-session-per-user and one-code-per-user
// invariants under concurrent per-user workflows.
type Store interface {
	Sessions() Sessions
	PendingCodes() PendingCodes
	ReviewTickets() ReviewTickets
	Cooldowns() Cooldowns

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Sessions interface {
	// CreateSession inserts a new session. Returns ErrAlreadyExists while
	// the user still has a live (in-progress or submitted) session.
	CreateSession(ctx context.Context, s domain.ApplicationSession) error

	// GetSession returns the user's live session.
	GetSession(ctx context.Context, userID string) (domain.ApplicationSession, error)

	// AppendAnswer appends one answer to the session's ordered answer list.
	AppendAnswer(ctx context.Context, userID string, a domain.Answer) error

	// UpdateSessionStatus transitions the session status and bumps updated_at.
	UpdateSessionStatus(ctx context.Context, userID string, status domain.SessionStatus) error

	// UpdateSubDepartment records the applicant's sub-department choice.
	UpdateSubDepartment(ctx context.Context, userID string, sub domain.SubDepartment) error

	// DeleteSession removes the user's session on terminal transition.
	DeleteSession(ctx context.Context, userID string) error

	// DeleteExpiredSessions removes in-progress sessions whose deadline is
	// long past. Housekeeping only; the question flow does its own
	// deadline enforcement.
	DeleteExpiredSessions(ctx context.Context) error
}

type PendingCodes interface {
	// UpsertPendingCode writes a pending code, overwriting any existing
	// record for the same user (no stacking).
	UpsertPendingCode(ctx context.Context, c domain.PendingCode) error

	// GetPendingCodeByUserID returns the user's pending code.
	GetPendingCodeByUserID(ctx context.Context, userID string) (domain.PendingCode, error)

	// DeletePendingCode consumes the code (on success or detected expiry).
	DeletePendingCode(ctx context.Context, userID string) error

	// DeleteExpiredPendingCodes is optional housekeeping.
	DeleteExpiredPendingCodes(ctx context.Context) error
}

type ReviewTickets interface {
	// CreateReviewTicket writes a new undecided ticket (id is ULID).
	CreateReviewTicket(ctx context.Context, t domain.ReviewTicket) error

	// GetReviewTicket fetches a ticket by id.
	GetReviewTicket(ctx context.Context, id string) (domain.ReviewTicket, error)

	// MarkReviewTicketDecided records the decision iff the ticket is still
	// undecided. Returns ErrNotFound when no undecided ticket matched,
	// which callers use to make re-decisions no-ops.
	MarkReviewTicketDecided(ctx context.Context, id string, decision domain.ReviewDecision, reviewerID string) error

	// DeleteDecidedReviewTickets is optional housekeeping.
	DeleteDecidedReviewTickets(ctx context.Context) error
}

type Cooldowns interface {
	// SetCooldown writes a reapply cooldown, overwriting any existing one.
	SetCooldown(ctx context.Context, c domain.Cooldown) error

	// GetCooldown returns the user's cooldown (expired or not).
	GetCooldown(ctx context.Context, userID string) (domain.Cooldown, error)

	// DeleteExpiredCooldowns is optional housekeeping.
	DeleteExpiredCooldowns(ctx context.Context) error
}

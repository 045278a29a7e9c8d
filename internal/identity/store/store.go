package store

import (
	"context"
	"errors"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx discipline for the multi-step flow operations that must
// be atomic (code issuance-with-invalidate, finalize, cleanup sweeps).
type Store interface {
	Users() Users
	PendingRegistrations() PendingRegistrations
	Verifications() Verifications

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

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login, code issuance, and the session gate.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByNickname is used for the finalize-time nickname uniqueness check.
	GetUserByNickname(ctx context.Context, nickname string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) after a reset.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type PendingRegistrations interface {
	// GetByEmail returns the pending registration for an email.
	GetByEmail(ctx context.Context, email string) (domain.PendingRegistration, error)

	// Create inserts a stage-1 registration (counter starts at zero).
	Create(ctx context.Context, p domain.PendingRegistration) error

	// IncrementFailedAttempts adds one wrong-code attempt and returns the
	// new counter value.
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)

	// ResetFailedAttempts zeroes the counter (successful check or reissue).
	ResetFailedAttempts(ctx context.Context, id string) error

	// Delete removes a pending registration by id. Deleting a row that is
	// already gone is a no-op, not an error: the cleanup sweep and a
	// concurrent finalize may race on the same row.
	Delete(ctx context.Context, id string) error

	// ListCreatedBefore returns registrations older than the cutoff, for
	// the cleanup sweep.
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]domain.PendingRegistration, error)
}

type Verifications interface {
	// Create inserts a freshly issued verification record.
	Create(ctx context.Context, v domain.Verification) error

	// GetLatestUnconsumedBySubject returns the newest unconsumed record for
	// a subject, the only one a check may act on.
	GetLatestUnconsumedBySubject(ctx context.Context, subject domain.VerificationSubject) (domain.Verification, error)

	// MarkConsumed flips the consumed flag (registration-subject success).
	MarkConsumed(ctx context.Context, id string) error

	// Delete removes a single record (account-subject success).
	Delete(ctx context.Context, id string) error

	// DeleteUnconsumedBySubject invalidates prior codes before a reissue.
	DeleteUnconsumedBySubject(ctx context.Context, subject domain.VerificationSubject) error

	// DeleteBySubject removes every record for a subject (finalize, cleanup).
	DeleteBySubject(ctx context.Context, subject domain.VerificationSubject) error
}

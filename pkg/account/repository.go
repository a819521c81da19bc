package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when no account exists for the given ID or username
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateUsername is returned when creating an account with a taken username
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrVersionConflict is returned when a save loses an optimistic concurrency check
	ErrVersionConflict = errors.New("account was modified concurrently")
)

// AccountRepository defines persistence operations for accounts.
//
// Save is an upsert keyed by ID. Implementations enforce an optimistic
// version check: the stored version must match the incoming account's
// version, otherwise ErrVersionConflict is returned. On success the
// returned account carries the incremented version.
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	Save(ctx context.Context, acct Account) (Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

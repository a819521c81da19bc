package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryAccountRepository implements AccountRepository using in-memory storage
type InMemoryAccountRepository struct {
	mu                 sync.RWMutex
	accounts           map[uuid.UUID]Account
	accountsByUsername map[string]uuid.UUID
}

// NewInMemoryAccountRepository creates a new in-memory account repository
func NewInMemoryAccountRepository() *InMemoryAccountRepository {
	return &InMemoryAccountRepository{
		accounts:           make(map[uuid.UUID]Account),
		accountsByUsername: make(map[string]uuid.UUID),
	}
}

// FindByID returns the account with the given ID
func (r *InMemoryAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// FindByUsername returns the account with the given username
func (r *InMemoryAccountRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.accountsByUsername[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// Save upserts an account by ID, enforcing the optimistic version check
func (r *InMemoryAccountRepository) Save(ctx context.Context, acct Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	existing, ok := r.accounts[acct.ID]
	if !ok {
		if acct.ID == uuid.Nil {
			acct.ID = uuid.New()
		}
		if otherID, taken := r.accountsByUsername[acct.Username]; taken && otherID != acct.ID {
			return Account{}, ErrDuplicateUsername
		}
		acct.Version = 1
		acct.CreatedAt = now
		acct.UpdatedAt = now
		r.accounts[acct.ID] = acct
		r.accountsByUsername[acct.Username] = acct.ID
		return acct, nil
	}

	if existing.Version != acct.Version {
		return Account{}, ErrVersionConflict
	}

	if existing.Username != acct.Username {
		if otherID, taken := r.accountsByUsername[acct.Username]; taken && otherID != acct.ID {
			return Account{}, ErrDuplicateUsername
		}
		delete(r.accountsByUsername, existing.Username)
		r.accountsByUsername[acct.Username] = acct.ID
	}

	acct.Version = existing.Version + 1
	acct.CreatedAt = existing.CreatedAt
	acct.UpdatedAt = now
	r.accounts[acct.ID] = acct
	return acct, nil
}

// Delete removes an account by ID
func (r *InMemoryAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.accountsByUsername, acct.Username)
	delete(r.accounts, id)
	return nil
}

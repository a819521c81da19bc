package account

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileAccountRepository implements AccountRepository using file-based storage.
// The whole account set is kept in memory and flushed to a single JSON file
// on every mutation, so it is only suitable for development and small
// deployments.
type FileAccountRepository struct {
	dataDir  string
	accounts map[uuid.UUID]Account
	mutex    sync.RWMutex
}

// NewFileAccountRepository creates a new file-based account repository
func NewFileAccountRepository(dataDir string) (*FileAccountRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileAccountRepository{
		dataDir:  dataDir,
		accounts: make(map[uuid.UUID]Account),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

func (r *FileAccountRepository) filePath() string {
	return filepath.Join(r.dataDir, "accounts.json")
}

func (r *FileAccountRepository) load() error {
	data, err := os.ReadFile(r.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("failed to unmarshal accounts: %w", err)
	}

	for _, acct := range accounts {
		r.accounts[acct.ID] = acct
	}
	return nil
}

// save is called with the write lock held
func (r *FileAccountRepository) save() error {
	accounts := make([]Account, 0, len(r.accounts))
	for _, acct := range r.accounts {
		accounts = append(accounts, acct)
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	tmpFile := r.filePath() + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	return os.Rename(tmpFile, r.filePath())
}

// FindByID returns the account with the given ID
func (r *FileAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// FindByUsername returns the account with the given username
func (r *FileAccountRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, acct := range r.accounts {
		if acct.Username == username {
			return acct, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// Save upserts an account by ID, enforcing the optimistic version check
func (r *FileAccountRepository) Save(ctx context.Context, acct Account) (Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()

	existing, ok := r.accounts[acct.ID]
	if !ok {
		if acct.ID == uuid.Nil {
			acct.ID = uuid.New()
		}
		for _, other := range r.accounts {
			if other.Username == acct.Username {
				return Account{}, ErrDuplicateUsername
			}
		}
		acct.Version = 1
		acct.CreatedAt = now
	} else {
		if existing.Version != acct.Version {
			return Account{}, ErrVersionConflict
		}
		acct.Version = existing.Version + 1
		acct.CreatedAt = existing.CreatedAt
	}
	acct.UpdatedAt = now

	r.accounts[acct.ID] = acct

	if err := r.save(); err != nil {
		// Rollback
		if ok {
			r.accounts[acct.ID] = existing
		} else {
			delete(r.accounts, acct.ID)
		}
		return Account{}, fmt.Errorf("failed to save: %w", err)
	}

	return acct, nil
}

// Delete removes an account by ID
func (r *FileAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, id)

	if err := r.save(); err != nil {
		// Rollback
		r.accounts[id] = acct
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

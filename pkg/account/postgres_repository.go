package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgreSQL-based account repository
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, username, email, password_hash, authorities, verified,
	two_factor_secret, using_two_factor_authentication, version, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	err := row.Scan(
		&acct.ID,
		&acct.Username,
		&acct.Email,
		&acct.PasswordHash,
		&acct.Authorities,
		&acct.Verified,
		&acct.TwoFactorSecret,
		&acct.UsingTwoFactorAuthentication,
		&acct.Version,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	return acct, nil
}

// FindByID returns the account with the given ID
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByUsername returns the account with the given username
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// Save upserts an account by ID. Updates carry a WHERE version = $n guard so
// concurrent writers lose with ErrVersionConflict instead of clobbering.
func (r *PostgresAccountRepository) Save(ctx context.Context, acct Account) (Account, error) {
	now := time.Now().UTC()

	if acct.Version == 0 {
		if acct.ID == uuid.Nil {
			acct.ID = uuid.New()
		}
		row := r.pool.QueryRow(ctx,
			`INSERT INTO accounts (id, username, email, password_hash, authorities, verified,
				two_factor_secret, using_two_factor_authentication, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $9)
			 RETURNING `+accountColumns,
			acct.ID, acct.Username, acct.Email, acct.PasswordHash, acct.Authorities,
			acct.Verified, acct.TwoFactorSecret, acct.UsingTwoFactorAuthentication, now)
		saved, err := scanAccount(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return Account{}, ErrDuplicateUsername
			}
			return Account{}, fmt.Errorf("failed to insert account: %w", err)
		}
		return saved, nil
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET username = $2, email = $3, password_hash = $4, authorities = $5, verified = $6,
			two_factor_secret = $7, using_two_factor_authentication = $8,
			version = version + 1, updated_at = $9
		 WHERE id = $1 AND version = $10
		 RETURNING `+accountColumns,
		acct.ID, acct.Username, acct.Email, acct.PasswordHash, acct.Authorities,
		acct.Verified, acct.TwoFactorSecret, acct.UsingTwoFactorAuthentication, now, acct.Version)
	saved, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Either the row is gone or the version moved underneath us
			if _, findErr := r.FindByID(ctx, acct.ID); findErr == nil {
				return Account{}, ErrVersionConflict
			}
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("failed to update account: %w", err)
	}
	return saved, nil
}

// Delete removes an account by ID
func (r *PostgresAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

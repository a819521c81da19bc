package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySaveAndFind(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	saved, err := repo.Save(context.Background(), Account{
		Username:    "gamer",
		Email:       "gamer@example.com",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, int64(1), saved.Version)
	assert.False(t, saved.CreatedAt.IsZero())

	byID, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, byID)

	byUsername, err := repo.FindByUsername(context.Background(), "gamer")
	require.NoError(t, err)
	assert.Equal(t, saved, byUsername)
}

func TestInMemoryFind_NotFound(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = repo.FindByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestInMemorySave_DuplicateUsername(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	_, err := repo.Save(context.Background(), Account{Username: "gamer"})
	require.NoError(t, err)

	_, err = repo.Save(context.Background(), Account{Username: "gamer"})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestInMemorySave_BumpsVersion(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	saved, err := repo.Save(context.Background(), Account{Username: "gamer"})
	require.NoError(t, err)

	saved.Email = "gamer@example.com"
	updated, err := repo.Save(context.Background(), saved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
}

func TestInMemorySave_VersionConflict(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	saved, err := repo.Save(context.Background(), Account{Username: "gamer"})
	require.NoError(t, err)

	// First writer wins
	first := saved
	first.Email = "first@example.com"
	_, err = repo.Save(context.Background(), first)
	require.NoError(t, err)

	// Second writer holds the stale version
	second := saved
	second.Email = "second@example.com"
	_, err = repo.Save(context.Background(), second)
	require.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.FindByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", stored.Email)
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryAccountRepository()

	saved, err := repo.Save(context.Background(), Account{Username: "gamer"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), saved.ID))

	_, err = repo.FindByID(context.Background(), saved.ID)
	require.ErrorIs(t, err, ErrAccountNotFound)
	_, err = repo.FindByUsername(context.Background(), "gamer")
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.ErrorIs(t, repo.Delete(context.Background(), saved.ID), ErrAccountNotFound)
}

func TestHasRoleAuthority(t *testing.T) {
	assert.True(t, Account{Authorities: []string{"ROLE_USER"}}.HasRoleAuthority())
	assert.True(t, Account{Authorities: []string{"SCOPE_READ", "ROLE_ADMIN"}}.HasRoleAuthority())
	assert.False(t, Account{Authorities: []string{"SCOPE_READ"}}.HasRoleAuthority())
	assert.False(t, Account{}.HasRoleAuthority())
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/cedms/internal/storage"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

func newUser(id, username, email string) *userDomain.User {
	return &userDomain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         userDomain.RoleEmployee,
		FullName:     "Test User",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LookupByAllKeys", func(t *testing.T) {
		repo := NewUserRepository(storage.NewMemoryStore())
		require.NoError(t, repo.Create(ctx, newUser("u-1", "Alice", "Alice@Example.com")))

		byID, err := repo.GetByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Username)

		byName, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "u-1", byName.ID)

		byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u-1", byEmail.ID)
	})

	t.Run("Error_DuplicateUsername", func(t *testing.T) {
		repo := NewUserRepository(storage.NewMemoryStore())
		require.NoError(t, repo.Create(ctx, newUser("u-1", "alice", "a@example.com")))

		err := repo.Create(ctx, newUser("u-2", "ALICE", "b@example.com"))
		assert.ErrorIs(t, err, userDomain.ErrUsernameTaken)
	})

	t.Run("Error_DuplicateEmailReleasesUsername", func(t *testing.T) {
		repo := NewUserRepository(storage.NewMemoryStore())
		require.NoError(t, repo.Create(ctx, newUser("u-1", "alice", "a@example.com")))

		err := repo.Create(ctx, newUser("u-2", "bob", "A@example.com"))
		assert.ErrorIs(t, err, userDomain.ErrEmailTaken)

		_, err = repo.GetByUsername(ctx, "bob")
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
		require.NoError(t, repo.Create(ctx, newUser("u-3", "bob", "bob@example.com")))
	})
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Create(ctx, newUser("u-1", "alice", "a@example.com")))

	t.Run("Success", func(t *testing.T) {
		at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		updated, err := repo.UpdatePassword(ctx, "u-1", "new-hash", at)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", updated.PasswordHash)
		assert.Equal(t, "alice", updated.Username)

		stored, err := repo.GetByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", stored.PasswordHash)
		assert.True(t, stored.UpdatedAt.Equal(at))
	})

	t.Run("Error_UnknownUser", func(t *testing.T) {
		_, err := repo.UpdatePassword(ctx, "missing", "x", time.Now())
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
	})
}

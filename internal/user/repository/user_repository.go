// Package repository persists users in the record store.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/allisson/cedms/internal/errors"
	"github.com/allisson/cedms/internal/storage"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// Collections. The index collections map the normalized username or email to
// the user id and enforce uniqueness through Create.
const (
	CollectionUsers      = "users"
	CollectionByUsername = "users_by_username"
	CollectionByEmail    = "users_by_email"
)

// UserRepository stores users keyed by id.
type UserRepository struct {
	store storage.Store
}

// NewUserRepository creates a repository over store.
func NewUserRepository(store storage.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create claims the username and email and stores the user. Claims are
// released again if a later step fails.
func (r *UserRepository) Create(ctx context.Context, user *userDomain.User) error {
	id, err := json.Marshal(user.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}
	usernameKey := userDomain.Normalize(user.Username)
	emailKey := userDomain.Normalize(user.Email)

	if err := r.store.Create(ctx, CollectionByUsername, usernameKey, id); err != nil {
		if errors.Is(err, storage.ErrRecordExists) {
			return userDomain.ErrUsernameTaken
		}
		return err
	}

	if err := r.store.Create(ctx, CollectionByEmail, emailKey, id); err != nil {
		_ = r.store.Delete(ctx, CollectionByUsername, usernameKey)
		if errors.Is(err, storage.ErrRecordExists) {
			return userDomain.ErrEmailTaken
		}
		return err
	}

	value, err := json.Marshal(user)
	if err == nil {
		err = r.store.Create(ctx, CollectionUsers, user.ID, value)
	}
	if err != nil {
		_ = r.store.Delete(ctx, CollectionByEmail, emailKey)
		_ = r.store.Delete(ctx, CollectionByUsername, usernameKey)
		return apperrors.Wrap(err, "failed to store user")
	}
	return nil
}

// GetByID returns the user or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDomain.User, error) {
	value, err := r.store.Get(ctx, CollectionUsers, id)
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var user userDomain.User
	if err := json.Unmarshal(value, &user); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user")
	}
	return &user, nil
}

// GetByUsername looks up a user case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDomain.User, error) {
	return r.getByIndex(ctx, CollectionByUsername, username)
}

// GetByEmail looks up a user case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	return r.getByIndex(ctx, CollectionByEmail, email)
}

func (r *UserRepository) getByIndex(ctx context.Context, collection, value string) (*userDomain.User, error) {
	raw, err := r.store.Get(ctx, collection, userDomain.Normalize(value))
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user index")
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword atomically replaces the stored password verifier and returns
// the updated user.
func (r *UserRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
	updatedAt time.Time,
) (*userDomain.User, error) {
	var updated userDomain.User
	err := r.store.Update(ctx, CollectionUsers, id, func(current []byte) ([]byte, error) {
		if err := json.Unmarshal(current, &updated); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode user")
		}
		updated.PasswordHash = passwordHash
		updated.UpdatedAt = updatedAt
		return json.Marshal(&updated)
	})
	if errors.Is(err, storage.ErrRecordNotFound) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

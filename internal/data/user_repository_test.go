//go:build integration

package data

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))

	u := &User{Username: "editor", PasswordHash: "hash", Role: "editor", Email: "ed@example.com", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	err := repo.Create(ctx, &User{Username: "editor", PasswordHash: "x", Role: "admin"})
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	byName, err := repo.GetByUsername(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Nil(t, byName.LastLogin)

	byEmail, err := repo.GetByUsername(ctx, "ed@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, repo.TouchLastLogin(ctx, u.ID))
	require.NoError(t, repo.SetActive(ctx, u.ID, false))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.LastLogin)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	assert.True(t, errors.Is(repo.SetActive(ctx, 999, true), ErrNotFound))

	got.Username, got.Email, got.Role = "chief", "chief@example.com", "admin"
	require.NoError(t, repo.Update(ctx, got))
	renamed, err := repo.GetByUsername(ctx, "chief")
	require.NoError(t, err)
	assert.Equal(t, "hash", renamed.PasswordHash)
	assert.Equal(t, "admin", renamed.Role)

	other := &User{Username: "writer", PasswordHash: "h", Role: "editor", IsActive: true}
	require.NoError(t, repo.Create(ctx, other))
	other.Username = "chief"
	assert.True(t, errors.Is(repo.Update(ctx, other), ErrDuplicateKey))

	require.NoError(t, repo.Delete(ctx, other.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, other.ID), ErrNotFound))
}

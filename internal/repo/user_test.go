package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripshare/backend/internal/domain"
)

func TestUserRepo_CreateAndLookup(t *testing.T) {
	_, users := newTestRepos(t)
	ctx := context.Background()

	created, err := users.Create(ctx, domain.User{
		Email:          "ada@example.com",
		Name:           "Ada",
		HashedPassword: ptr("hash"),
		Role:           domain.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	byEmail, err := users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	require.NotNil(t, byEmail.HashedPassword)
	assert.Equal(t, "hash", *byEmail.HashedPassword)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
	assert.Equal(t, domain.RoleUser, byID.Role)
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	_, users := newTestRepos(t)
	ctx := context.Background()

	createAuthor(t, users, "ada@example.com")
	_, err := users.Create(ctx, domain.User{Email: "ada@example.com", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	_, users := newTestRepos(t)

	_, err := users.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	_, users := newTestRepos(t)
	ctx := context.Background()
	u := createAuthor(t, users, "ada@example.com")

	require.NoError(t, users.UpdatePassword(ctx, u.ID, "new-hash"))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HashedPassword)
	assert.Equal(t, "new-hash", *got.HashedPassword)

	assert.ErrorIs(t, users.UpdatePassword(ctx, uuid.New(), "x"), domain.ErrNotFound)
}

// Upsert on an existing email must promote the row in place rather than
// creating a second account.
func TestUserRepo_Upsert_Idempotent(t *testing.T) {
	_, users := newTestRepos(t)
	ctx := context.Background()

	first := createAuthor(t, users, "admin@example.com")

	got, err := users.Upsert(ctx, domain.User{
		Email:          "admin@example.com",
		Name:           "Admin",
		HashedPassword: ptr("admin-hash"),
		Role:           domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "Ada", got.Name, "name is kept on conflict")
	require.NotNil(t, got.HashedPassword)
	assert.Equal(t, "admin-hash", *got.HashedPassword)
}

package service

import (
	"context"
	"errors"
	"testing"

	"scribe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hasherStub struct {
	hashFn   func(string) (string, error)
	verifyFn func(string, string) bool
}

func (h hasherStub) HashPassword(password string) (string, error) { return h.hashFn(password) }
func (h hasherStub) VerifyPassword(password, digest string) bool  { return h.verifyFn(password, digest) }

func TestUserService_Register_Validation(t *testing.T) {
	users := noopUserRepo()
	users.createFn = func(_ context.Context, _ *models.User) error {
		t.Fatal("invalid input must not reach the repository")
		return nil
	}
	repos, uow := stubRepos(users, noopPostRepo(), noopTagRepo())
	svc := NewUserService(repos, uow, hasherStub{
		hashFn:   func(p string) (string, error) { return "hash:" + p, nil },
		verifyFn: func(string, string) bool { return true },
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "password123"},
		{"username with spaces", "bad name", "password123"},
		{"short password", "alice", "abc1"},
		{"password without digit", "alice", "passwordonly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), RegisterInput{Username: tt.username, Password: tt.password})
			assertValidationError(t, err)
		})
	}
}

func TestUserService_Register_HashFailure(t *testing.T) {
	repos, uow := stubRepos(noopUserRepo(), noopPostRepo(), noopTagRepo())
	svc := NewUserService(repos, uow, hasherStub{
		hashFn:   func(string) (string, error) { return "", errors.New("entropy exhausted") },
		verifyFn: func(string, string) bool { return false },
	})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123"})
	assertErrorCode(t, err, models.CodeInternal)
}

func TestUserService_SQLite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.register(t, "alice")
	assert.NotZero(t, alice.ID)
	assert.NotEqual(t, "password123", alice.PasswordHash)
	assert.False(t, alice.IsPrivate)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := f.users.Register(ctx, RegisterInput{Username: "alice", Password: "password456"})
		assertErrorCode(t, err, models.CodeConflict)
	})

	t.Run("authenticate", func(t *testing.T) {
		u, err := f.users.Authenticate(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)

		_, err = f.users.Authenticate(ctx, "alice", "wrong-password1")
		assertErrorCode(t, err, models.CodeUnauthorized)

		_, err = f.users.Authenticate(ctx, "nobody", "password123")
		assertErrorCode(t, err, models.CodeUnauthorized)
	})

	t.Run("lookup", func(t *testing.T) {
		u, err := f.users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)

		_, err = f.users.GetByID(ctx, 4242)
		assertErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("toggle twice restores visibility", func(t *testing.T) {
		u, err := f.users.ToggleVisibility(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, u.IsPrivate)

		u, err = f.users.ToggleVisibility(ctx, alice.ID)
		require.NoError(t, err)
		assert.False(t, u.IsPrivate)

		stored, err := f.users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsPrivate)
	})

	t.Run("toggle unknown user", func(t *testing.T) {
		_, err := f.users.ToggleVisibility(ctx, 4242)
		assertErrorCode(t, err, models.CodeNotFound)
	})
}

func TestUserService_GetByUsernameWithPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bob := f.register(t, "bob")
	carol := f.register(t, "carol")
	f.post(t, bob, "first")
	second := f.post(t, bob, "second")
	require.NoError(t, f.posts.DeletePost(ctx, second.ID, bob.ID))

	u, err := f.users.GetByUsernameWithPosts(ctx, "bob", models.Anonymous())
	require.NoError(t, err)
	require.Len(t, u.Posts, 1)
	assert.Equal(t, "first", u.Posts[0].Title)

	_, err = f.users.ToggleVisibility(ctx, bob.ID)
	require.NoError(t, err)

	u, err = f.users.GetByUsernameWithPosts(ctx, "bob", models.Authenticated(carol))
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Empty(t, u.Posts)

	self, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	u, err = f.users.GetByUsernameWithPosts(ctx, "bob", models.Authenticated(self))
	require.NoError(t, err)
	assert.Len(t, u.Posts, 1)

	_, err = f.users.GetByUsernameWithPosts(ctx, "nobody", models.Anonymous())
	assertErrorCode(t, err, models.CodeNotFound)
}

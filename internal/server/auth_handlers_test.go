package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"scribe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "alice",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, resp.status)

	var body map[string]any
	resp.decode(t, &body)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["is_private"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "PasswordHash")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate username", map[string]string{"username": "alice", "password": "password123"}, http.StatusConflict, models.CodeConflict},
		{"invalid username", map[string]string{"username": "a!", "password": "password123"}, http.StatusBadRequest, models.CodeValidation},
		{"weak password", map[string]string{"username": "bob", "password": "short"}, http.StatusBadRequest, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/users", tt.body, "")
			assert.Equal(t, tt.status, resp.status)
			assert.Equal(t, tt.code, resp.errorBody(t).Code)
		})
	}
}

func TestToken(t *testing.T) {
	env := newTestEnv(t, false)
	env.signup(t, "alice")

	t.Run("json body", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/users/token", map[string]string{
			"username": "alice",
			"password": "password123",
		}, "")
		require.Equal(t, http.StatusOK, resp.status)

		var tok TokenResponse
		resp.decode(t, &tok)
		assert.NotEmpty(t, tok.AccessToken)
		assert.Equal(t, "Bearer", tok.TokenType)
		assert.False(t, tok.ExpiresAt.IsZero())
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"password123"}}
		req := httptest.NewRequest(http.MethodPost, "/api/users/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp := env.send(t, req)
		require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/users/token", map[string]string{
			"username": "alice",
			"password": "password124",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.status)
		assert.Equal(t, "Bearer", resp.header.Get("WWW-Authenticate"))
		assert.Equal(t, "Incorrect username or password", resp.errorBody(t).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/users/token", map[string]string{
			"username": "nobody",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/users/token", map[string]string{"username": "alice"}, "")
		assert.Equal(t, http.StatusBadRequest, resp.status)
	})
}

func TestToken_RepeatedFailuresAreNotThrottled(t *testing.T) {
	env := newTestEnv(t, false)
	env.signup(t, "alice")

	for i := 0; i < 15; i++ {
		resp := env.do(t, http.MethodPost, "/api/users/token", map[string]string{
			"username": "alice",
			"password": "wrong-password1",
		}, "")
		require.Equal(t, http.StatusUnauthorized, resp.status, "attempt %d", i+1)
	}

	env.login(t, "alice", "password123")
}

func TestGetMe(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.signup(t, "alice")

	resp := env.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, resp.status)
	var me models.User
	resp.decode(t, &me)
	assert.Equal(t, "alice", me.Username)

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Bearer not-a-jwt",
		"basic":     "Basic YWxpY2U6cGFzc3dvcmQxMjM=",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp := env.send(t, req)
			assert.Equal(t, http.StatusUnauthorized, resp.status)
			assert.Equal(t, "Bearer", resp.header.Get("WWW-Authenticate"))
			assert.Equal(t, "Could not validate credentials", resp.errorBody(t).Error)
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.signup(t, "alice")
	other := env.login(t, "alice", "password123")

	resp := env.do(t, http.MethodPost, "/api/users/logout", nil, token)
	require.Equal(t, http.StatusNoContent, resp.status)

	resp = env.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	// Other sessions stay valid.
	resp = env.do(t, http.MethodGet, "/api/users/me", nil, other)
	assert.Equal(t, http.StatusOK, resp.status)

	// A revoked token reads anonymously on optional routes.
	resp = env.do(t, http.MethodGet, "/api/posts", nil, token)
	assert.Equal(t, http.StatusOK, resp.status)

	keys := env.redis.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "revoked:"))
	assert.Positive(t, env.redis.TTL(keys[0]))
}

func TestLogout_WithoutRedis(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.signup(t, "alice")

	resp := env.do(t, http.MethodPost, "/api/users/logout", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)

	resp = env.do(t, http.MethodPost, "/api/users/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

package bootstrap

import (
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisURL string) *config.Config {
	return &config.Config{
		Env:             "development",
		Port:            "0",
		DBDriver:        "sqlite",
		SQLitePath:      filepath.Join(t.TempDir(), "scribe.db"),
		RedisURL:        redisURL,
		JWTSecret:       "bootstrap-test-secret-with-enough-length",
		JWTIssuer:       "scribe-api",
		JWTAudience:     "scribe-client",
		TokenTTLMinutes: 30,
		BcryptCost:      4,
	}
}

func TestInitRuntime_SeedsFixtures(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t, mr.Addr())

	db, r, err := InitRuntime(cfg, Options{SeedFixtures: true, RequireRedis: true})
	require.NoError(t, err)
	require.NotNil(t, r)
	t.Cleanup(func() {
		_ = r.Close()
		closeDB(db)
	})

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Positive(t, users)
}

func TestInitRuntime_RedisOptional(t *testing.T) {
	cfg := sqliteConfig(t, "127.0.0.1:1")

	db, r, err := InitRuntime(cfg, Options{})
	require.NoError(t, err)
	assert.Nil(t, r)
	closeDB(db)

	_, _, err = InitRuntime(cfg, Options{RequireRedis: true})
	assert.Error(t, err)
}

func TestInitRuntime_RefusesProductionSeed(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t, mr.Addr())
	cfg.Env = "production"

	_, _, err := InitRuntime(cfg, Options{SeedFixtures: true})
	assert.Error(t, err)
}

func TestNewCredentials(t *testing.T) {
	cfg := sqliteConfig(t, "")
	creds, err := NewCredentials(cfg)
	require.NoError(t, err)

	issued, err := creds.IssueToken("1", 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(cfg.TokenTTL()), issued.ExpiresAt, 5*time.Second)

	claims, err := creds.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)

	cfg.JWTSecret = ""
	_, err = NewCredentials(cfg)
	assert.Error(t, err)
}

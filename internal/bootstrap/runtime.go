// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"scribe/internal/auth"
	"scribe/internal/config"
	"scribe/internal/database"
	"scribe/internal/revocation"
	"scribe/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixtures loads the embedded demo fixtures after connecting.
	SeedFixtures bool
	// RequireRedis turns an unreachable Redis into an error instead of a warning.
	RequireRedis bool
}

// InitRuntime connects to the database and Redis and optionally seeds demo
// fixtures. The Redis client is nil when Redis is unreachable and not required.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r, err := revocation.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		if opts.RequireRedis {
			closeDB(db)
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Printf("redis unavailable, token revocation disabled: %v", err)
		r = nil
	}

	if opts.SeedFixtures {
		if err := seedFixtures(ctx, cfg, db); err != nil {
			closeDB(db)
			if r != nil {
				_ = r.Close()
			}
			return nil, nil, fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}

	return db, r, nil
}

// NewCredentials builds the credential service described by cfg.
func NewCredentials(cfg *config.Config) (*auth.Credentials, error) {
	return auth.NewCredentials(auth.Settings{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL(),
		BcryptCost: cfg.BcryptCost,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
	})
}

func seedFixtures(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed fixtures in %s", cfg.Env)
	}
	creds, err := NewCredentials(cfg)
	if err != nil {
		return err
	}
	fx, err := seed.DefaultFixtures()
	if err != nil {
		return err
	}
	_, err = seed.NewSeeder(db, creds).Run(ctx, fx, seed.Options{})
	return err
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Command main runs the database seeder for Scribe.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/database"
	"scribe/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of generated users")
	postsPerUser := flag.Int("posts", 5, "Posts per generated user")
	privateEvery := flag.Int("private-every", 4, "Make every n-th generated user private (0 disables)")
	shouldClean := flag.Bool("clean", false, "Delete all users, posts and tags first")
	fixturesPath := flag.String("fixtures", "", "YAML fixtures file (defaults to the embedded fixtures)")
	randSeed := flag.Int64("rand-seed", 0, "Seed for generated content (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a %s database", cfg.Env)
	}

	fixtures, err := loadFixtures(*fixturesPath)
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	creds, err := bootstrap.NewCredentials(cfg)
	if err != nil {
		log.Fatalf("Failed to configure credentials: %v", err)
	}

	sum, err := seed.NewSeeder(db, creds).Run(context.Background(), fixtures, seed.Options{
		NumUsers:     *numUsers,
		PostsPerUser: *postsPerUser,
		PrivateEvery: *privateEvery,
		ShouldClean:  *shouldClean,
		RandSeed:     *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts and %d tags", sum.Users, sum.Posts, sum.Tags)
	log.Printf("Generated users have the password: %s", seed.DefaultPassword)
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.LoadFixtures(raw)
}

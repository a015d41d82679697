// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"context"
	"fmt"
	"log"

	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/service"

	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	// PrivateEvery makes every n-th generated user private. Zero disables it.
	PrivateEvery int
	ShouldClean  bool
	// RandSeed makes generated content reproducible. Zero picks a random seed.
	RandSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Users int
	Posts int
	Tags  int
}

// Seeder writes fixtures and generated content through the services, so seeded
// data obeys the same validation as API input.
type Seeder struct {
	db    *gorm.DB
	users *service.UserService
	posts *service.PostService
	tags  *service.TagService
}

// NewSeeder returns a Seeder bound to db. hasher hashes user passwords.
func NewSeeder(db *gorm.DB, hasher service.PasswordHasher) *Seeder {
	repos := repository.NewRepositories(db)
	uow := repository.NewUnitOfWork(db)
	return &Seeder{
		db:    db,
		users: service.NewUserService(repos, uow, hasher),
		posts: service.NewPostService(repos, uow),
		tags:  service.NewTagService(repos, uow),
	}
}

// Run applies fixtures, then generates opts.NumUsers random users with
// opts.PostsPerUser posts each.
func (s *Seeder) Run(ctx context.Context, fixtures *Fixtures, opts Options) (Summary, error) {
	var sum Summary

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return sum, err
		}
	}

	if fixtures != nil {
		if err := s.applyFixtures(ctx, fixtures, &sum); err != nil {
			return sum, err
		}
	}

	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return sum, fmt.Errorf("list tags: %w", err)
	}
	titles := make([]string, 0, len(tags))
	for _, t := range tags {
		titles = append(titles, t.Title)
	}

	f := NewFactory(opts.RandSeed)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := s.registerGenerated(ctx, f)
		if err != nil {
			return sum, err
		}
		sum.Users++

		for j := 0; j < opts.PostsPerUser; j++ {
			if _, err := s.posts.CreatePost(ctx, f.Post(user.ID, titles)); err != nil {
				return sum, fmt.Errorf("create post for %s: %w", user.Username, err)
			}
			sum.Posts++
		}

		if opts.PrivateEvery > 0 && (i+1)%opts.PrivateEvery == 0 {
			if _, err := s.users.ToggleVisibility(ctx, user.ID); err != nil {
				return sum, fmt.Errorf("make %s private: %w", user.Username, err)
			}
		}
	}

	log.Printf("seed complete: %d users, %d posts, %d tags", sum.Users, sum.Posts, sum.Tags)
	return sum, nil
}

// registerGenerated registers a random user, retrying on username collisions.
func (s *Seeder) registerGenerated(ctx context.Context, f *Factory) (*models.User, error) {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		var user *models.User
		user, err = s.users.Register(ctx, service.RegisterInput{Username: f.Username(), Password: DefaultPassword})
		if err == nil {
			return user, nil
		}
		if models.ErrorCode(err) != models.CodeConflict {
			break
		}
	}
	return nil, fmt.Errorf("register generated user: %w", err)
}

// applyFixtures creates fixture tags and users. Existing tags and users are
// left as they are, and posts are only added for users created by this run.
func (s *Seeder) applyFixtures(ctx context.Context, fx *Fixtures, sum *Summary) error {
	for _, title := range fx.Tags {
		_, err := s.tags.CreateTag(ctx, title)
		if models.ErrorCode(err) == models.CodeConflict {
			continue
		}
		if err != nil {
			return fmt.Errorf("create tag %q: %w", title, err)
		}
		sum.Tags++
	}

	for _, fu := range fx.Users {
		user, err := s.users.Register(ctx, service.RegisterInput{Username: fu.Username, Password: fu.Password})
		if models.ErrorCode(err) == models.CodeConflict {
			log.Printf("fixture user %s already exists, skipping", fu.Username)
			continue
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", fu.Username, err)
		}
		sum.Users++

		for _, fp := range fu.Posts {
			in := service.CreatePostInput{
				AuthorID: user.ID,
				Title:    fp.Title,
				Content:  fp.Content,
				Tags:     fp.Tags,
			}
			if fp.Category != "" {
				category := fp.Category
				in.Category = &category
			}
			if _, err := s.posts.CreatePost(ctx, in); err != nil {
				return fmt.Errorf("create post %q: %w", fp.Title, err)
			}
			sum.Posts++
		}

		if fu.Private {
			if _, err := s.users.ToggleVisibility(ctx, user.ID); err != nil {
				return fmt.Errorf("make %s private: %w", fu.Username, err)
			}
		}
	}
	return nil
}

// ClearAll removes every post, tag and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("clearing existing data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"post_tags", "posts", "tags", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

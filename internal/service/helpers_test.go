package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scribe/internal/auth"
	"scribe/internal/database"
	"scribe/internal/models"
	"scribe/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn                func(context.Context, uint) (*models.User, error)
	getByUsernameFn          func(context.Context, string) (*models.User, error)
	getByUsernameWithPostsFn func(context.Context, string) (*models.User, error)
	createFn                 func(context.Context, *models.User) error
	setPrivateFn             func(context.Context, uint, bool) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByUsernameWithPosts(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameWithPostsFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) SetPrivate(ctx context.Context, id uint, private bool) error {
	return s.setPrivateFn(ctx, id, private)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:                func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:          func(_ context.Context, u string) (*models.User, error) { return &models.User{Username: u}, nil },
		getByUsernameWithPostsFn: func(_ context.Context, u string) (*models.User, error) { return &models.User{Username: u}, nil },
		createFn:                 func(_ context.Context, _ *models.User) error { return nil },
		setPrivateFn:             func(_ context.Context, _ uint, _ bool) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	getActiveFn   func(context.Context, uint) (*models.Post, error)
	listVisibleFn func(context.Context, models.Viewer, int, int) ([]models.Post, error)
	createFn      func(context.Context, *models.Post) error
	addTagsFn     func(context.Context, uint, []uint) error
	updateFn      func(context.Context, uint, repository.PostChanges) error
	softDeleteFn  func(context.Context, uint, time.Time) error
}

func (s *postRepoStub) GetActive(ctx context.Context, id uint) (*models.Post, error) {
	return s.getActiveFn(ctx, id)
}
func (s *postRepoStub) ListVisible(ctx context.Context, viewer models.Viewer, offset, limit int) ([]models.Post, error) {
	return s.listVisibleFn(ctx, viewer, offset, limit)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) AddTags(ctx context.Context, postID uint, tagIDs []uint) error {
	return s.addTagsFn(ctx, postID, tagIDs)
}
func (s *postRepoStub) Update(ctx context.Context, id uint, changes repository.PostChanges) error {
	return s.updateFn(ctx, id, changes)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return s.softDeleteFn(ctx, id, at)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		getActiveFn:   func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listVisibleFn: func(_ context.Context, _ models.Viewer, _, _ int) ([]models.Post, error) { return nil, nil },
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		addTagsFn:     func(_ context.Context, _ uint, _ []uint) error { return nil },
		updateFn:      func(_ context.Context, _ uint, _ repository.PostChanges) error { return nil },
		softDeleteFn:  func(_ context.Context, _ uint, _ time.Time) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	createFn       func(context.Context, *models.Tag) error
	findByTitlesFn func(context.Context, []string) ([]models.Tag, error)
	listFn         func(context.Context) ([]models.Tag, error)
}

func (s *tagRepoStub) Create(ctx context.Context, tag *models.Tag) error {
	return s.createFn(ctx, tag)
}
func (s *tagRepoStub) FindByTitles(ctx context.Context, titles []string) ([]models.Tag, error) {
	return s.findByTitlesFn(ctx, titles)
}
func (s *tagRepoStub) List(ctx context.Context) ([]models.Tag, error) {
	return s.listFn(ctx)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		createFn:       func(_ context.Context, _ *models.Tag) error { return nil },
		findByTitlesFn: func(_ context.Context, _ []string) ([]models.Tag, error) { return []models.Tag{}, nil },
		listFn:         func(_ context.Context) ([]models.Tag, error) { return []models.Tag{}, nil },
	}
}

// stubUnitOfWork runs fn against fixed repositories without a transaction.
type stubUnitOfWork struct {
	repos repository.Repositories
}

func (u stubUnitOfWork) Do(_ context.Context, fn func(r repository.Repositories) error) error {
	return fn(u.repos)
}

func stubRepos(users *userRepoStub, posts *postRepoStub, tags *tagRepoStub) (repository.Repositories, repository.UnitOfWork) {
	repos := repository.Repositories{Users: users, Posts: posts, Tags: tags}
	return repos, stubUnitOfWork{repos: repos}
}

// fixture wires every service to an in-memory SQLite database.
type fixture struct {
	db    *gorm.DB
	creds *auth.Credentials
	posts *PostService
	tags  *TagService
	users *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.ApplySchema(context.Background(), db))

	creds, err := auth.NewCredentials(auth.Settings{
		Secret:     "service-test-secret-with-enough-length",
		TokenTTL:   30 * time.Minute,
		BcryptCost: bcrypt.MinCost,
		Issuer:     "scribe-api",
		Audience:   "scribe-client",
	})
	require.NoError(t, err)

	repos := repository.NewRepositories(db)
	uow := repository.NewUnitOfWork(db)
	return &fixture{
		db:    db,
		creds: creds,
		posts: NewPostService(repos, uow),
		tags:  NewTagService(repos, uow),
		users: NewUserService(repos, uow, creds),
	}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{Username: username, Password: "password123"})
	require.NoError(t, err)
	return u
}

func (f *fixture) registerPrivate(t *testing.T, username string) *models.User {
	t.Helper()
	u := f.register(t, username)
	u, err := f.users.ToggleVisibility(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, u.IsPrivate)
	return u
}

func (f *fixture) tag(t *testing.T, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := f.tags.CreateTag(context.Background(), title)
		require.NoError(t, err)
	}
}

func (f *fixture) post(t *testing.T, author *models.User, title string, tags ...string) *models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), CreatePostInput{
		AuthorID: author.ID,
		Title:    title,
		Content:  "content for " + title,
		Tags:     tags,
	})
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

// assertErrorCode asserts that err is an AppError carrying code.
func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertErrorCode(t, err, models.CodeValidation)
}

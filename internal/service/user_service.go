package service

import (
	"context"
	"errors"
	"strings"

	"scribe/internal/auth"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
	"scribe/internal/validation"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, digest string) bool
}

type UserService struct {
	repos  repository.Repositories
	uow    repository.UnitOfWork
	hasher PasswordHasher
}

type RegisterInput struct {
	Username string
	Password string
}

func NewUserService(repos repository.Repositories, uow repository.UnitOfWork, hasher PasswordHasher) *UserService {
	return &UserService{repos: repos, uow: uow, hasher: hasher}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repos.Users.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repos.Users.GetByUsername(ctx, username)
}

// GetByUsernameWithPosts returns the user with their active posts. The posts
// of a private user are withheld from every viewer but that user.
func (s *UserService) GetByUsernameWithPosts(ctx context.Context, username string, viewer models.Viewer) (*models.User, error) {
	user, err := s.repos.Users.GetByUsernameWithPosts(ctx, username)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(user) {
		observability.VisibilityDenials.WithLabelValues(observability.ViewerKind(viewer.UserID())).Inc()
		user.Posts = []models.Post{}
	}
	return user, nil
}

// Register creates an account. A taken username is a conflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, models.NewValidationError(err.Error())
		}
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Incorrect username or password")

	user, err := s.repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			observability.AuthFailures.WithLabelValues("unknown_user").Inc()
			return nil, invalid
		}
		return nil, err
	}
	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		observability.AuthFailures.WithLabelValues("bad_password").Inc()
		return nil, invalid
	}
	return user, nil
}

// ToggleVisibility flips the caller's is_private flag and returns the updated user.
func (s *UserService) ToggleVisibility(ctx context.Context, userID uint) (*models.User, error) {
	var user *models.User
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		u, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := r.Users.SetPrivate(ctx, u.ID, !u.IsPrivate); err != nil {
			return err
		}
		u.IsPrivate = !u.IsPrivate
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

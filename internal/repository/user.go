// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameWithPosts(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetPrivate(ctx context.Context, id uint, private bool) error
}

type userRepository struct {
	db *gorm.DB
	in instrumentation
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, in: newInstrumentation("users")}
}

func userNotFound(username string) *models.AppError {
	return &models.AppError{
		Code:    models.CodeNotFound,
		Message: fmt.Sprintf("User %q not found", username),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (user *models.User, err error) {
	ctx, done := r.in.start(ctx, "GetByID")
	defer func() { done(err) }()

	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translateError(err, models.NewNotFoundError("User", id), "")
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	ctx, done := r.in.start(ctx, "GetByUsername")
	defer func() { done(err) }()

	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translateError(err, userNotFound(username), "")
	}
	return &u, nil
}

// GetByUsernameWithPosts loads the user with their active posts and each post's tags.
func (r *userRepository) GetByUsernameWithPosts(ctx context.Context, username string) (user *models.User, err error) {
	ctx, done := r.in.start(ctx, "GetByUsernameWithPosts")
	defer func() { done(err) }()

	var u models.User
	err = r.db.WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.PostStatusActive).Order("id ASC")
		}).
		Preload("Posts.Tags").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		return nil, translateError(err, userNotFound(username), "")
	}
	if u.Posts == nil {
		u.Posts = []models.Post{}
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := r.in.start(ctx, "Create")
	defer func() { done(err) }()

	if err := r.db.WithContext(ctx).Omit("Posts").Create(user).Error; err != nil {
		return translateError(err, nil, "Username already taken")
	}
	r.in.log.LogMutation(ctx, "create", slog.Uint64("user_id", uint64(user.ID)))
	return nil
}

func (r *userRepository) SetPrivate(ctx context.Context, id uint, private bool) (err error) {
	ctx, done := r.in.start(ctx, "SetPrivate")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_private", private)
	if res.Error != nil {
		return translateError(res.Error, nil, "")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	r.in.log.LogMutation(ctx, "set_private", slog.Uint64("user_id", uint64(id)), slog.Bool("is_private", private))
	return nil
}

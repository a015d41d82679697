package repository

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostChanges holds the column values written by PostRepository.Update.
type PostChanges struct {
	Title     string
	Content   string
	Category  *string
	UpdatedAt time.Time
}

// PostRepository defines persistence operations for posts and their tag links.
type PostRepository interface {
	// GetActive returns an active post with author and tags loaded.
	GetActive(ctx context.Context, id uint) (*models.Post, error)
	// ListVisible returns active posts readable by viewer, ordered by id.
	ListVisible(ctx context.Context, viewer models.Viewer, offset, limit int) ([]models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	AddTags(ctx context.Context, postID uint, tagIDs []uint) error
	Update(ctx context.Context, id uint, changes PostChanges) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
}

type postRepository struct {
	db *gorm.DB
	in instrumentation
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, in: newInstrumentation("posts")}
}

// visibleTo restricts a posts query to active rows whose author the viewer may read.
func visibleTo(db *gorm.DB, viewer models.Viewer) *gorm.DB {
	q := db.Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.status = ?", models.PostStatusActive)
	if viewer.IsAnonymous() {
		return q.Where("users.is_private = ?", false)
	}
	return q.Where("(users.is_private = ? OR users.id = ?)", false, viewer.UserID())
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id ASC")
	})
}

func (r *postRepository) GetActive(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, done := r.in.start(ctx, "GetActive")
	defer func() { done(err) }()

	var p models.Post
	err = withDetails(r.db.WithContext(ctx)).
		Where("posts.status = ?", models.PostStatusActive).
		First(&p, id).Error
	if err != nil {
		return nil, translateError(err, models.NewNotFoundError("Post", id), "")
	}
	return &p, nil
}

func (r *postRepository) ListVisible(ctx context.Context, viewer models.Viewer, offset, limit int) (posts []models.Post, err error) {
	ctx, done := r.in.start(ctx, "ListVisible")
	defer func() { done(err) }()

	posts = []models.Post{}
	err = withDetails(visibleTo(r.db.WithContext(ctx), viewer)).
		Select("posts.*").
		Order("posts.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translateError(err, nil, "")
	}
	return posts, nil
}

// Create inserts the post row only. Tags are linked separately with AddTags.
func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, done := r.in.start(ctx, "Create")
	defer func() { done(err) }()

	if post.Status == "" {
		post.Status = models.PostStatusActive
	}
	if err := r.db.WithContext(ctx).Omit("Author", "Tags").Create(post).Error; err != nil {
		return translateError(err, nil, "")
	}
	r.in.log.LogMutation(ctx, "create", slog.Uint64("post_id", uint64(post.ID)), slog.Uint64("author_id", uint64(post.AuthorID)))
	return nil
}

// AddTags links tagIDs to the post. Links that already exist are left alone.
func (r *postRepository) AddTags(ctx context.Context, postID uint, tagIDs []uint) (err error) {
	if len(tagIDs) == 0 {
		return nil
	}

	ctx, done := r.in.start(ctx, "AddTags")
	defer func() { done(err) }()

	links := make([]models.PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return translateError(err, nil, "")
	}
	return nil
}

// Update writes the editable columns and marks the post as updated.
func (r *postRepository) Update(ctx context.Context, id uint, changes PostChanges) (err error) {
	ctx, done := r.in.start(ctx, "Update")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, models.PostStatusActive).
		Updates(map[string]interface{}{
			"title":      changes.Title,
			"content":    changes.Content,
			"category":   changes.Category,
			"updated":    true,
			"updated_at": changes.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, nil, "")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.in.log.LogMutation(ctx, "update", slog.Uint64("post_id", uint64(id)))
	return nil
}

// SoftDelete marks an active post as deleted. Deleted posts are never removed.
func (r *postRepository) SoftDelete(ctx context.Context, id uint, at time.Time) (err error) {
	ctx, done := r.in.start(ctx, "SoftDelete")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, models.PostStatusActive).
		Updates(map[string]interface{}{
			"status":     models.PostStatusDeleted,
			"deleted_at": at,
		})
	if res.Error != nil {
		return translateError(res.Error, nil, "")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.in.log.LogMutation(ctx, "soft_delete", slog.Uint64("post_id", uint64(id)))
	return nil
}

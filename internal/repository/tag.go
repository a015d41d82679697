package repository

import (
	"context"
	"log/slog"

	"scribe/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	FindByTitles(ctx context.Context, titles []string) ([]models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
	in instrumentation
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, in: newInstrumentation("tags")}
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) (err error) {
	ctx, done := r.in.start(ctx, "Create")
	defer func() { done(err) }()

	if err := r.db.WithContext(ctx).Omit("Posts").Create(tag).Error; err != nil {
		return translateError(err, nil, "Tag already exists")
	}
	r.in.log.LogMutation(ctx, "create", slog.Uint64("tag_id", uint64(tag.ID)), slog.String("title", tag.Title))
	return nil
}

// FindByTitles returns the existing tags whose title is in titles. Unknown titles are skipped.
func (r *tagRepository) FindByTitles(ctx context.Context, titles []string) (tags []models.Tag, err error) {
	if len(titles) == 0 {
		return []models.Tag{}, nil
	}

	ctx, done := r.in.start(ctx, "FindByTitles")
	defer func() { done(err) }()

	tags = []models.Tag{}
	if err := r.db.WithContext(ctx).Where("title IN ?", titles).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, translateError(err, nil, "")
	}
	return tags, nil
}

func (r *tagRepository) List(ctx context.Context) (tags []models.Tag, err error) {
	ctx, done := r.in.start(ctx, "List")
	defer func() { done(err) }()

	tags = []models.Tag{}
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&tags).Error; err != nil {
		return nil, translateError(err, nil, "")
	}
	return tags, nil
}

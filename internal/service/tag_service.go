// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"

	"scribe/internal/models"
	"scribe/internal/repository"
	"scribe/internal/validation"
)

type TagService struct {
	repos repository.Repositories
	uow   repository.UnitOfWork
}

func NewTagService(repos repository.Repositories, uow repository.UnitOfWork) *TagService {
	return &TagService{repos: repos, uow: uow}
}

// CreateTag stores a new tag. A title that already exists is a conflict.
func (s *TagService) CreateTag(ctx context.Context, title string) (*models.Tag, error) {
	title = validation.NormalizeTagTitle(title)
	if err := validation.ValidateTagTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	tag := &models.Tag{Title: title}
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		return r.Tags.Create(ctx, tag)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// ResolveMany returns the existing tags named in titles. Unknown titles are dropped.
func (s *TagService) ResolveMany(ctx context.Context, titles []string) ([]models.Tag, error) {
	return resolveTags(ctx, s.repos.Tags, titles)
}

// ListTags returns every tag ordered by title.
func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.repos.Tags.List(ctx)
}

// resolveTags trims and de-duplicates titles, then looks up the ones that exist.
func resolveTags(ctx context.Context, tags repository.TagRepository, titles []string) ([]models.Tag, error) {
	seen := make(map[string]struct{}, len(titles))
	wanted := make([]string, 0, len(titles))
	for _, t := range titles {
		t = validation.NormalizeTagTitle(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		wanted = append(wanted, t)
	}
	if len(wanted) == 0 {
		return []models.Tag{}, nil
	}
	return tags.FindByTitles(ctx, wanted)
}

func tagIDs(tags []models.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

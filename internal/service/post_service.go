package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
	"scribe/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Page size limits for ListPosts.
const (
	DefaultPageSize = 10
	MaxPageSize     = 10
)

type PostService struct {
	repos repository.Repositories
	uow   repository.UnitOfWork
	now   func() time.Time
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
	Category *string
	Tags     []string
}

// UpdatePostInput carries a partial update. Nil fields are left unchanged and a
// nil Tags slice leaves tags alone; present tags are added to the existing set.
type UpdatePostInput struct {
	PostID   uint
	AuthorID uint
	Title    *string
	Content  *string
	Category *string
	Tags     []string
}

type ListPostsInput struct {
	Viewer models.Viewer
	Offset int
	Limit  int
}

func NewPostService(repos repository.Repositories, uow repository.UnitOfWork) *PostService {
	return &PostService{repos: repos, uow: uow, now: time.Now}
}

// GetPost returns an active post the viewer is allowed to read. Posts hidden
// by privacy are reported as not found.
func (s *PostService) GetPost(ctx context.Context, id uint, viewer models.Viewer) (*models.Post, error) {
	post, err := s.repos.Posts.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(post.Author) {
		observability.VisibilityDenials.WithLabelValues(observability.ViewerKind(viewer.UserID())).Inc()
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// ListPosts returns one page of posts visible to the viewer in id order.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.Post, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	return s.repos.Posts.ListVisible(ctx, in.Viewer, offset, limit)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (created *models.Post, err error) {
	ctx, finish := trackMutation(ctx, "create", in.AuthorID)
	defer func() { finish(createdID(created), err) }()

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validatePostFields(in.Title, in.Content, in.Category); err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		tags, err := resolveTags(ctx, r.Tags, in.Tags)
		if err != nil {
			return err
		}

		post := &models.Post{
			Title:    in.Title,
			Content:  in.Content,
			Category: normalizeCategory(in.Category),
			AuthorID: in.AuthorID,
			Status:   models.PostStatusActive,
		}
		if err := r.Posts.Create(ctx, post); err != nil {
			return err
		}
		if err := r.Posts.AddTags(ctx, post.ID, tagIDs(tags)); err != nil {
			return err
		}

		created, err = r.Posts.GetActive(ctx, post.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (updated *models.Post, err error) {
	ctx, finish := trackMutation(ctx, "update", in.AuthorID)
	defer func() { finish(in.PostID, err) }()

	err = s.uow.Do(ctx, func(r repository.Repositories) error {
		post, err := r.Posts.GetActive(ctx, in.PostID)
		if err != nil {
			return err
		}
		if !post.IsOwnedBy(in.AuthorID) {
			return models.NewForbiddenError("Only the author can edit this post")
		}

		changes := repository.PostChanges{
			Title:     post.Title,
			Content:   post.Content,
			Category:  post.Category,
			UpdatedAt: s.now().UTC(),
		}
		if in.Title != nil {
			changes.Title = *in.Title
		}
		if in.Content != nil {
			changes.Content = *in.Content
		}
		if in.Category != nil {
			changes.Category = normalizeCategory(in.Category)
		}
		if err := validatePostFields(changes.Title, changes.Content, changes.Category); err != nil {
			return err
		}

		if err := r.Posts.Update(ctx, post.ID, changes); err != nil {
			return err
		}

		if in.Tags != nil {
			tags, err := resolveTags(ctx, r.Tags, in.Tags)
			if err != nil {
				return err
			}
			if err := r.Posts.AddTags(ctx, post.ID, tagIDs(tags)); err != nil {
				return err
			}
		}

		updated, err = r.Posts.GetActive(ctx, post.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost soft-deletes a post owned by authorID.
func (s *PostService) DeletePost(ctx context.Context, postID, authorID uint) (err error) {
	ctx, finish := trackMutation(ctx, "delete", authorID)
	defer func() { finish(postID, err) }()

	return s.uow.Do(ctx, func(r repository.Repositories) error {
		post, err := r.Posts.GetActive(ctx, postID)
		if err != nil {
			return err
		}
		if !post.IsOwnedBy(authorID) {
			return models.NewForbiddenError("Only the author can delete this post")
		}
		return r.Posts.SoftDelete(ctx, post.ID, s.now().UTC())
	})
}

func validatePostFields(title, content string, category *string) error {
	if err := validation.ValidatePostTitle(title); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return models.NewValidationError(err.Error())
	}
	if category != nil {
		if err := validation.ValidatePostCategory(*category); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// normalizeCategory trims the category and maps blank to no category.
func normalizeCategory(category *string) *string {
	if category == nil {
		return nil
	}
	c := strings.TrimSpace(*category)
	if c == "" {
		return nil
	}
	return &c
}

// trackMutation opens a span for a post mutation. The returned func ends it,
// counts the outcome and writes the service log line.
func trackMutation(ctx context.Context, op string, authorID uint) (context.Context, func(postID uint, err error)) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", op,
		attribute.Int64("author.id", int64(authorID)))

	return ctx, func(postID uint, err error) {
		if postID != 0 {
			span.SetAttributes(attribute.Int64("post.id", int64(postID)))
		}
		observability.PostMutations.WithLabelValues(op, observability.Outcome(err)).Inc()
		if op == "create" && err == nil {
			observability.PostsCreated.Inc()
		}
		observability.EndSpan(span, err)
		observability.LogServiceCall(ctx, "PostService", op, err,
			slog.Uint64("post_id", uint64(postID)),
			slog.Uint64("author_id", uint64(authorID)))
	}
}

func createdID(p *models.Post) uint {
	if p == nil {
		return 0
	}
	return p.ID
}

package service

import (
	"context"
	"strconv"
	"time"

	"scribe/internal/auth"
	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (auth.Claims, error)
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// Identity is an authenticated caller together with the token that proved it.
type Identity struct {
	User      *models.User
	TokenID   string
	ExpiresAt time.Time
}

// IdentityResolver turns bearer tokens into users.
type IdentityResolver struct {
	tokens  TokenValidator
	users   repository.UserRepository
	revoked RevocationChecker
}

// NewIdentityResolver returns a resolver. revoked may be nil, which disables revocation checks.
func NewIdentityResolver(tokens TokenValidator, users repository.UserRepository, revoked RevocationChecker) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users, revoked: revoked}
}

// ResolveRequired returns the caller identified by token. A missing, invalid,
// expired or revoked token, or a subject that no longer exists, is Unauthorized.
func (r *IdentityResolver) ResolveRequired(ctx context.Context, token string) (*Identity, error) {
	unauthorized := models.NewUnauthorizedError("Could not validate credentials")

	if token == "" {
		observability.AuthFailures.WithLabelValues("missing_token").Inc()
		return nil, unauthorized
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		observability.AuthFailures.WithLabelValues("invalid_token").Inc()
		return nil, unauthorized
	}

	if r.revoked != nil && r.revoked.IsRevoked(ctx, claims.ID) {
		observability.AuthFailures.WithLabelValues("revoked_token").Inc()
		return nil, unauthorized
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		observability.AuthFailures.WithLabelValues("invalid_subject").Inc()
		return nil, unauthorized
	}

	user, err := r.users.GetByID(ctx, uint(userID))
	if err != nil {
		if models.IsNotFound(err) {
			observability.AuthFailures.WithLabelValues("unknown_subject").Inc()
			return nil, unauthorized
		}
		return nil, err
	}

	return &Identity{User: user, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt}, nil
}

// ResolveOptional is ResolveRequired for read paths: any failure, including
// an absent token, yields an anonymous viewer.
func (r *IdentityResolver) ResolveOptional(ctx context.Context, token string) models.Viewer {
	if token == "" {
		return models.Anonymous()
	}
	id, err := r.ResolveRequired(ctx, token)
	if err != nil {
		return models.Anonymous()
	}
	return models.Authenticated(id.User)
}

// Subject returns the token subject for user.
func Subject(user *models.User) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}

// Package auth hashes passwords and issues and validates access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

var (
	// ErrInvalidToken is returned for any token that fails validation.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
)

// Settings configures a Credentials instance. It is copied on construction.
type Settings struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Issuer     string
	Audience   string
}

// Claims are the validated contents of an access token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a signed access token together with its id and expiry.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Credentials hashes passwords and signs HS256 tokens. Safe for concurrent use.
type Credentials struct {
	settings Settings
	now      func() time.Time
}

// NewCredentials returns a Credentials bound to s.
func NewCredentials(s Settings) (*Credentials, error) {
	if s.Secret == "" {
		return nil, errors.New("JWT secret not configured")
	}
	if s.TokenTTL <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	if s.BcryptCost == 0 {
		s.BcryptCost = bcrypt.DefaultCost
	}
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", s.BcryptCost)
	}
	return &Credentials{settings: s, now: time.Now}, nil
}

// HashPassword returns a salted bcrypt digest of password.
func (c *Credentials) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.settings.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches digest.
func (c *Credentials) VerifyPassword(password, digest string) bool {
	if len(password) > MaxPasswordBytes || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// IssueToken signs a token for subject that expires after ttl.
// A non-positive ttl uses the configured default.
func (c *Credentials) IssueToken(subject string, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = c.settings.TokenTTL
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": c.settings.Issuer,
		"aud": c.settings.Audience,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.settings.Secret))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return IssuedToken{
		Token:     signed,
		ID:        jti,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// ValidateToken verifies signature, algorithm, expiry, issuer and audience
// and returns the token's claims. Every failure is ErrInvalidToken.
func (c *Credentials) ValidateToken(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.settings.Issuer))
	}
	if c.settings.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.settings.Audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(c.settings.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{Subject: sub, ExpiresAt: exp.Time}
	if jti, ok := mc["jti"].(string); ok {
		claims.ID = jti
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken covers bad signatures, unexpected algorithms, expiry
	// and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidTokenType is returned when a token of the wrong kind is presented.
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims is the signed payload of both token kinds. A missing Type means access.
type Claims struct {
	Type    string `json:"type,omitempty"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Kind returns the token kind, treating an absent type as access.
func (c Claims) Kind() string {
	if c.Type == "" {
		return TokenTypeAccess
	}
	return c.Type
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
	IsAdmin   bool
}

// TokenService issues and validates HS256 tokens. Tokens are never stored;
// expiry is the only way a token stops being valid.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService constructs a TokenService. Non-positive TTLs fall back to
// the defaults.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	s := &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccessToken signs an access token expiring at now+ttl.
func (s *TokenService) IssueAccessToken(subject string, isAdmin bool, ttl time.Duration) (string, error) {
	return s.issue(subject, TokenTypeAccess, isAdmin, ttl)
}

// IssueRefreshToken signs a refresh token expiring at now+ttl.
func (s *TokenService) IssueRefreshToken(subject string, isAdmin bool, ttl time.Duration) (string, error) {
	return s.issue(subject, TokenTypeRefresh, isAdmin, ttl)
}

// IssuePair issues an access and a refresh token with the configured lifetimes.
func (s *TokenService) IssuePair(subject string, isAdmin bool) (TokenPair, error) {
	access, err := s.IssueAccessToken(subject, isAdmin, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(subject, isAdmin, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL / time.Second),
		IsAdmin:      isAdmin,
	}, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Authenticate verifies an access token and returns its principal.
// Refresh tokens are rejected.
func (s *TokenService) Authenticate(tokenString string) (Principal, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if claims.Kind() != TokenTypeAccess {
		return Principal{}, ErrInvalidTokenType
	}
	return Principal{Username: claims.Subject, IsAdmin: claims.IsAdmin}, nil
}

// Refresh exchanges a refresh token for a new access and refresh token.
// The presented token is not invalidated and stays usable until it expires.
func (s *TokenService) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := s.Verify(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Type != TokenTypeRefresh {
		return TokenPair{}, ErrInvalidTokenType
	}
	return s.IssuePair(claims.Subject, claims.IsAdmin)
}

func (s *TokenService) issue(subject, tokenType string, isAdmin bool, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}
	now := s.now()
	claims := Claims{
		Type:    tokenType,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

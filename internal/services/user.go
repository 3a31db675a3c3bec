package services

import (
	"context"
	"errors"
	"strings"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/auth"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates registration, login and token refresh.
type UserService struct {
	repo       UserRepository
	tokens     *auth.TokenService
	bcryptCost int
}

func NewUserService(repo UserRepository, tokens *auth.TokenService, bcryptCost int) *UserService {
	return &UserService{repo: repo, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *UserService) Register(ctx context.Context, username, password string, isAdmin bool) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, apperr.Validation("Username is required", "username")
	}
	if password == "" {
		return types.User{}, apperr.Validation("Password is required", "password")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return types.User{}, apperr.Internal("Failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, apperr.Conflict("Username already exists", "user")
		}
		return types.User{}, apperr.Persistence("create_user", err)
	}
	return user, nil
}

// Authenticate reports whether the credentials match a stored user.
// An unknown user and a wrong password both yield false with a nil error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, false, nil
		}
		return types.User{}, false, apperr.Persistence("get_user", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return types.User{}, false, nil
	}
	return user, true, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return auth.TokenPair{}, apperr.Validation("Username and password are required", "credentials")
	}

	user, ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !ok {
		return auth.TokenPair{}, apperr.Unauthorized("Incorrect username or password")
	}

	pair, err := s.tokens.IssuePair(user.Username, user.IsAdmin)
	if err != nil {
		return auth.TokenPair{}, apperr.Internal("Failed to issue tokens", err)
	}
	return pair, nil
}

func (s *UserService) Refresh(refreshToken string) (auth.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.TokenPair{}, apperr.Validation("Refresh token is required", "refresh_token")
	}

	pair, err := s.tokens.Refresh(refreshToken)
	switch {
	case err == nil:
		return pair, nil
	case errors.Is(err, auth.ErrInvalidTokenType):
		return auth.TokenPair{}, apperr.Validation("Invalid token type", "refresh_token")
	case errors.Is(err, auth.ErrInvalidToken):
		return auth.TokenPair{}, apperr.Unauthorized("Invalid or expired refresh token")
	default:
		return auth.TokenPair{}, apperr.Internal("Token refresh failed", err)
	}
}

// Current loads the user behind an authenticated principal.
func (s *UserService) Current(ctx context.Context, principal auth.Principal) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.Unauthorized("User not found")
		}
		return types.User{}, apperr.Persistence("get_user", err)
	}
	return user, nil
}

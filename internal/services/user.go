package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jotnotes/apiserver/internal/auth"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/jotnotes/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates registration, login and token resolution.
type UserService struct {
	repo       UserRepository
	tokens     *auth.TokenIssuer
	bcryptCost int
}

func NewUserService(repo UserRepository, tokens *auth.TokenIssuer, bcryptCost int) *UserService {
	return &UserService{repo: repo, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Register stores a new user with a hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hashed, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return types.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:       username,
		HashedPassword: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrUsernameTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user matching username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrBadCredentials
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	if !auth.VerifyPassword(password, user.HashedPassword) {
		return types.User{}, ErrBadCredentials
	}
	return user, nil
}

// Login authenticates and issues an access token for the user.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// CurrentUser resolves a bearer token to an active user. Every token
// failure, including a subject that no longer exists, is ErrUnauthorized.
func (s *UserService) CurrentUser(ctx context.Context, token string) (types.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.repo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthorized
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	user.IsActive = true
	return user, nil
}

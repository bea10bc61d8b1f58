package service

import (
	"context"
	"errors"
	"time"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/repository"
)

// Auth service errors.
var (
	ErrInvalidCredentials = errors.New("incorrect login or password")
	ErrEmailNotConfirmed  = errors.New("email address not confirmed")
)

// AuthService verifies credentials and issues access tokens.
type AuthService struct {
	repo      *repository.Repository
	tokens    *auth.TokenManager
	jwtExpiry time.Duration
}

// NewAuthService creates an AuthService.
func NewAuthService(repo *repository.Repository, tokens *auth.TokenManager, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		jwtExpiry: jwtExpiry,
	}
}

// Login verifies the username and password and returns an access token.
// Unconfirmed accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a comparison anyway to keep timing uniform between
			// unknown users and wrong passwords.
			auth.VerifyPassword(password, "$2a$10$7EqJtq98hPqEX7fNZaFWoO6PpKp3bCoSPy3m8XFQW3VgqgmWyErfa")
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.VerifyPassword(password, user.HashedPassword) {
		return "", ErrInvalidCredentials
	}

	if !user.Confirmed {
		return "", ErrEmailNotConfirmed
	}

	return s.tokens.IssueAccessToken(user.Email, s.jwtExpiry)
}

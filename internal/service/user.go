// Package service provides business logic for the application.
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/cache"
	"github.com/contactbook/contactbook/internal/mailer"
	"github.com/contactbook/contactbook/internal/metrics"
	"github.com/contactbook/contactbook/internal/model"
	"github.com/contactbook/contactbook/internal/repository"
)

// User service errors.
var (
	ErrEmailTaken      = errors.New("user with this email already exists")
	ErrUsernameTaken   = errors.New("user with that name already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidUsername = errors.New("username must be 1-20 characters")
)

// sendTimeout bounds background email delivery.
const sendTimeout = 30 * time.Second

// UserService handles account lifecycle: registration, confirmation,
// password resets and avatar updates.
type UserService struct {
	repo          *repository.Repository
	cache         *cache.Cache
	mailer        *mailer.Mailer
	tokens        *auth.TokenManager
	metrics       metrics.Recorder
	logger        *slog.Logger
	baseURL       string
	emailTokenTTL time.Duration

	// wg tracks in-flight background email sends so they can be
	// drained on shutdown.
	wg sync.WaitGroup
}

// NewUserService creates a UserService.
func NewUserService(
	repo *repository.Repository,
	cacheClient *cache.Cache,
	m *mailer.Mailer,
	tokens *auth.TokenManager,
	recorder metrics.Recorder,
	logger *slog.Logger,
	baseURL string,
	emailTokenTTL time.Duration,
) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		repo:          repo,
		cache:         cacheClient,
		mailer:        m,
		tokens:        tokens,
		metrics:       recorder,
		logger:        logger,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		emailTokenTTL: emailTokenTTL,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new unconfirmed account and sends a verification
// email in the background.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || len(username) > model.MaxNameLength {
		return nil, ErrInvalidUsername
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:             ulid.Make().String(),
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		Confirmed:      false,
		Avatar:         gravatarURL(email),
		Role:           model.RoleUser,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.sendVerificationAsync(user)

	return user, nil
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ConfirmEmail validates a verification token and marks the account
// confirmed. Returns true if the email was already confirmed.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	email, err := s.tokens.VerifyToken(token, auth.PurposeVerifyEmail)
	if err != nil {
		return false, err
	}

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.repo.ConfirmUserEmail(ctx, email); err != nil {
		return false, err
	}

	s.invalidateCache(ctx, email)
	return false, nil
}

// ResendVerification re-sends the verification email if the account exists
// and is not yet confirmed. It never reveals whether the account exists.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Confirmed {
		return nil
	}

	s.sendVerificationAsync(user)
	return nil
}

// RequestPasswordReset sends a password-reset email if the account exists.
// It never reveals whether the account exists.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	s.sendAsync(user, "password reset", func() error {
		token, err := s.tokens.IssueEmailToken(user.Email, auth.PurposePasswordReset, s.emailTokenTTL)
		if err != nil {
			return err
		}
		link := fmt.Sprintf("%s/api/auth/password_reset/%s", s.baseURL, token)
		return s.mailer.SendPasswordResetEmail(user.Email, user.Username, link)
	})
	return nil
}

// ResetPassword validates a reset token and replaces the account password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	email, err := s.tokens.VerifyToken(token, auth.PurposePasswordReset)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateUserPassword(ctx, email, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.invalidateCache(ctx, email)
	return user, nil
}

// UpdateAvatar stores the new avatar URL for the user and refreshes the
// auth cache.
func (s *UserService) UpdateAvatar(ctx context.Context, email, avatarURL string) (*model.User, error) {
	user, err := s.repo.UpdateUserAvatar(ctx, email, avatarURL)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.invalidateCache(ctx, email)
	return user, nil
}

// Drain waits for in-flight background email sends, or until ctx expires.
// Registered as a shutdown hook.
func (s *UserService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *UserService) sendVerificationAsync(user *model.User) {
	s.sendAsync(user, "verification", func() error {
		token, err := s.tokens.IssueEmailToken(user.Email, auth.PurposeVerifyEmail, s.emailTokenTTL)
		if err != nil {
			return err
		}
		link := fmt.Sprintf("%s/api/auth/confirm/%s", s.baseURL, token)
		return s.mailer.SendVerificationEmail(user.Email, user.Username, link)
	})
}

// sendAsync runs an email send in the background. Failures are logged,
// never surfaced to the request that triggered them.
func (s *UserService) sendAsync(user *model.User, kind string, send func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		done := make(chan error, 1)
		go func() { done <- send() }()

		var err error
		select {
		case err = <-done:
		case <-time.After(sendTimeout):
			err = context.DeadlineExceeded
		}

		if err != nil {
			s.metrics.IncEmailFailed()
			s.logger.Error("failed to send email",
				slog.String("kind", kind),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.metrics.IncEmailSent()
	}()
}

func (s *UserService) invalidateCache(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, email); err != nil {
		s.logger.Warn("failed to invalidate user cache",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}
}

// normalizeEmail validates and lowercases an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > model.MaxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// gravatarURL builds the default avatar for an email address.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/contactbook/contactbook/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, hashed_password, confirmed, avatar, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.Confirmed,
		nullString(user.Avatar),
		user.Role,
		user.CreatedAt,
	)

	if err != nil {
		switch violatedConstraint(err) {
		case "users_email_key":
			return ErrEmailExists
		case "users_username_key":
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByUsername retrieves a user by their username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *Repository) getUser(ctx context.Context, column, value string) (*model.User, error) {
	// column is always one of the fixed callers above, never user input.
	query := fmt.Sprintf(`
		SELECT id, username, email, hashed_password, confirmed, COALESCE(avatar, ''), role, created_at
		FROM users
		WHERE %s = $1
	`, column)

	var user model.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.Confirmed,
		&user.Avatar,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}

// ConfirmUserEmail marks the user's email as confirmed.
func (r *Repository) ConfirmUserEmail(ctx context.Context, email string) error {
	query := `UPDATE users SET confirmed = TRUE WHERE email = $1`

	tag, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateUserAvatar sets the avatar URL for the user with the given email
// and returns the updated user.
func (r *Repository) UpdateUserAvatar(ctx context.Context, email, avatarURL string) (*model.User, error) {
	query := `UPDATE users SET avatar = $2 WHERE email = $1`

	tag, err := r.pool.Exec(ctx, query, email, avatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetUserByEmail(ctx, email)
}

// UpdateUserPassword replaces the stored password hash for the user with
// the given email and returns the updated user.
func (r *Repository) UpdateUserPassword(ctx context.Context, email, hashedPassword string) (*model.User, error) {
	query := `UPDATE users SET hashed_password = $2 WHERE email = $1`

	tag, err := r.pool.Exec(ctx, query, email, hashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	return r.GetUserByEmail(ctx, email)
}

// nullString converts an empty string to nil for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

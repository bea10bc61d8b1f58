// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/contactbook/contactbook/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 270815

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// AcquireSQLLock is the database/sql counterpart of AcquireDBLock, for
// tests that connect through database/sql instead of pgx.
func AcquireSQLLock(ctx context.Context, db *sql.DB) (func() error, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates all tables. Contacts reference users,
// so migrations run down in reverse order and up in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	down := []string{"000002_contacts.down.sql", "000001_users.down.sql"}
	up := []string{"000001_users.up.sql", "000002_contacts.up.sql"}

	for _, name := range append(down, up...) {
		sql, err := os.ReadFile(filepath.Join(root, "migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// NewTestUser creates a confirmed test user with sensible defaults.
// The username and email carry a unique suffix so tests do not collide.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	suffix := uniqueSuffix()
	return &model.User{
		ID:             ulid.Make().String(),
		Username:       "u" + suffix,
		Email:          "u" + suffix + "@example.com",
		HashedPassword: "$2a$10$7EqJtq98hPqEX7fNZaFWoO6PpKp3bCoSPy3m8XFQW3VgqgmWyErfa",
		Confirmed:      true,
		Role:           model.RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewTestContact creates a test contact owned by the given user.
func NewTestContact(t testing.TB, userID string) *model.Contact {
	t.Helper()
	suffix := uniqueSuffix()
	now := time.Now().UTC()
	return &model.Contact{
		ID:          ulid.Make().String(),
		FirstName:   "Test",
		LastName:    "Contact",
		Email:       "c" + suffix + "@example.com",
		PhoneNumber: phoneFromSuffix(suffix),
		Birthday:    time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// uniqueSuffix returns a short unique string for test identities.
func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1e12)
}

// phoneFromSuffix builds a unique phone number within the 15 char limit.
func phoneFromSuffix(suffix string) string {
	if len(suffix) > 12 {
		suffix = suffix[len(suffix)-12:]
	}
	return "+1" + suffix
}

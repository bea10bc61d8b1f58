package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contactbook/contactbook/internal/model"
)

const (
	// userCachePrefix is the Redis key prefix for cached users.
	userCachePrefix = "user:email:"
	// userCacheTTL is the time-to-live for cached users.
	userCacheTTL = time.Hour
)

// cachedUser is the Redis representation of a user. The password hash is
// deliberately not cached.
type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Confirmed bool      `json:"confirmed"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUser retrieves a cached user by email.
// Returns nil on cache miss; a miss is not an error.
func (c *Cache) GetUser(ctx context.Context, email string) (*model.User, error) {
	data, err := c.client.Get(ctx, userCachePrefix+email).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.User{
		ID:        cached.ID,
		Username:  cached.Username,
		Email:     cached.Email,
		Confirmed: cached.Confirmed,
		Avatar:    cached.Avatar,
		Role:      model.Role(cached.Role),
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetUser caches a user keyed by email.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	cached := cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Confirmed: user.Confirmed,
		Avatar:    user.Avatar,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return c.client.Set(ctx, userCachePrefix+user.Email, data, userCacheTTL).Err()
}

// InvalidateUser removes a cached user. Used when the account changes
// (avatar update, password reset, confirmation).
func (c *Cache) InvalidateUser(ctx context.Context, email string) error {
	return c.client.Del(ctx, userCachePrefix+email).Err()
}

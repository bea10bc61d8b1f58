//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contactbook/contactbook/internal/cache"
)

// TestUserRateLimitConcurrency verifies per-user rate limiting under
// concurrent load. This test requires Redis to be running.
func TestUserRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()

	// Skip if Redis not available
	redisURL := "redis://localhost:6379"
	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer cacheClient.Close()

	// Clear any existing rate limit state
	_ = cacheClient.Client().FlushDB(ctx).Err()

	userID := "test-user-concurrent"
	rpm := 10 // Low limit to trigger easily
	burst := 5

	var allowed, rejected int64

	// Spawn 20 concurrent goroutines, each making 3 requests
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := cacheClient.CheckUserRateLimit(ctx, userID, rpm, burst)
				if err != nil {
					t.Errorf("CheckUserRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}

	wg.Wait()

	total := allowed + rejected
	t.Logf("Concurrency test: %d allowed, %d rejected (total: %d)", allowed, rejected, total)

	// With 60 requests against a burst of 5 at 10 RPM, most are rejected
	if allowed > int64(burst+rpm) {
		t.Errorf("Too many requests allowed: %d (expected <= %d)", allowed, burst+rpm)
	}

	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

// TestIPRateLimitConcurrency verifies IP-based rate limiting concurrency.
func TestIPRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()

	redisURL := "redis://localhost:6379"
	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer cacheClient.Close()

	_ = cacheClient.Client().FlushDB(ctx).Err()

	testIP := "192.168.1.100"
	rps := 5
	burst := 3

	var allowed, rejected int64
	var wg sync.WaitGroup

	// 30 concurrent requests
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, _ := cacheClient.CheckIPRateLimit(ctx, testIP, rps, burst)
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	t.Logf("IP rate limit: %d allowed, %d rejected", allowed, rejected)

	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

// TestRateLimitHeaders verifies rate limit headers are set correctly.
func TestRateLimitHeaders(t *testing.T) {
	resetAt := time.Now().Add(time.Minute)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setRateLimitHeaders(w, 10, 7, resetAt)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("Expected X-RateLimit-Limit=10, got %s", rec.Header().Get("X-RateLimit-Limit"))
	}

	if rec.Header().Get("X-RateLimit-Remaining") != "7" {
		t.Errorf("Expected X-RateLimit-Remaining=7, got %s", rec.Header().Get("X-RateLimit-Remaining"))
	}

	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("Expected X-RateLimit-Reset to be set")
	}
}

// Test429Response verifies the rate limit error response format.
func Test429Response(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRateLimitError(rec, 5*time.Second)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}

	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type")
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"code":"RATE_LIMITED"`) {
		t.Errorf("Response should contain RATE_LIMITED code, got: %s", body)
	}
	if !strings.Contains(body, "5 seconds") {
		t.Errorf("Response should mention the retry delay, got: %s", body)
	}
}

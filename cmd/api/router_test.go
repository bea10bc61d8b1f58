package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/config"
	"github.com/contactbook/contactbook/internal/handler"
	"github.com/contactbook/contactbook/internal/metrics"
)

// newTestRouter builds the full route tree with rate limiting disabled.
// Requests in these tests are rejected by middleware before any backend
// would be reached, so repository and cache stay unset.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppEnv:             "development",
		MaxRequestBodySize: 1 << 20,
		MaxAvatarSize:      5 << 20,
	}

	return setupRouter(routerDeps{
		base:     handler.New("test"),
		health:   handler.NewHealthHandler(nil, nil),
		auth:     handler.NewAuthHandler(nil, nil, logger),
		contacts: handler.NewContactHandler(nil, logger),
		users:    handler.NewUserHandler(nil, nil, logger, cfg.MaxAvatarSize),
		tokens:   auth.NewTokenManager("test-secret"),
		metrics:  metrics.NewNoop(),
		cfg:      cfg,
		logger:   logger,
	})
}

func TestRouter_AvatarRouteUsesAvatarBodyLimit(t *testing.T) {
	router := newTestRouter(t)

	// A body above the default request cap but below the avatar cap must
	// reach the avatar route's auth check instead of being cut off at the
	// smaller limit.
	body := bytes.Repeat([]byte("x"), 2<<20)
	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", bytes.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusRequestEntityTooLarge {
		t.Fatalf("2MB avatar upload rejected by body limit: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 from auth check, got %d", rec.Code)
	}
}

func TestRouter_AvatarRouteStillBounded(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.Repeat([]byte("x"), 6<<20)
	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", bytes.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for body above the avatar limit, got %d", rec.Code)
	}
}

func TestRouter_DefaultBodyLimitOnOtherRoutes(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.Repeat([]byte("x"), 2<<20)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/register"},
		{http.MethodPost, "/api/contacts/"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("Expected 413 for oversized body on %s, got %d", tc.path, rec.Code)
			}
		})
	}
}

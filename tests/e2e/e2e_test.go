//go:build e2e

// Package e2e exercises the full user journey against a live server:
// register, confirm, login, then the contact lifecycle. It needs both a
// running server (API_BASE_URL) and direct database access (DATABASE_URL)
// to confirm the account without an email round trip.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/contactbook/contactbook/internal/repository"
	"github.com/contactbook/contactbook/internal/testutil"
)

type env struct {
	baseURL string
	client  *http.Client
	repo    *repository.Repository
	ctx     context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		t.Skipf("Server not available: %v", err)
	}
	resp.Body.Close()

	return &env{baseURL: baseURL, client: client, repo: repo, ctx: ctx}
}

func TestE2ESmoke(t *testing.T) {
	e := newEnv(t)

	user := testutil.NewTestUser(t)
	password := "e2e-journey-pass1"

	// Register over HTTP, then confirm directly in the database.
	resp := e.post(t, "/api/auth/register", "", map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"password": password,
	})
	e.expect(t, resp, http.StatusCreated, "register")

	if err := e.repo.ConfirmUserEmail(e.ctx, user.Email); err != nil {
		t.Fatalf("confirm email: %v", err)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	resp = e.post(t, "/api/auth/login", "", map[string]string{
		"username": user.Username,
		"password": password,
	})
	e.decode(t, resp, http.StatusOK, "login", &loginResp)
	if loginResp.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	token := loginResp.AccessToken

	// Current user
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	resp = e.get(t, "/api/users/me", token)
	e.decode(t, resp, http.StatusOK, "get me", &me)
	if me.Username != user.Username || me.Email != user.Email {
		t.Errorf("unexpected identity: got %s/%s, want %s/%s",
			me.Username, me.Email, user.Username, user.Email)
	}

	// Contact lifecycle
	soon := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	var created struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
	}
	resp = e.post(t, "/api/contacts/", token, map[string]string{
		"first_name":   "Journey",
		"last_name":    "Tester",
		"email":        fmt.Sprintf("journey-%s@example.com", user.Username),
		"phone_number": "+15550001122",
		"birthday":     soon,
	})
	e.decode(t, resp, http.StatusCreated, "create contact", &created)
	if created.ID == "" {
		t.Fatal("created contact has no id")
	}

	var list struct {
		Data  []json.RawMessage `json:"data"`
		Count int               `json:"count"`
	}
	resp = e.get(t, "/api/contacts/", token)
	e.decode(t, resp, http.StatusOK, "list contacts", &list)
	if list.Count != 1 {
		t.Errorf("expected 1 contact, got %d", list.Count)
	}

	resp = e.get(t, "/api/contacts/search?query=Journey", token)
	e.decode(t, resp, http.StatusOK, "search contacts", &list)
	if list.Count != 1 {
		t.Errorf("expected search to match 1 contact, got %d", list.Count)
	}

	resp = e.get(t, "/api/contacts/birthdays", token)
	e.decode(t, resp, http.StatusOK, "upcoming birthdays", &list)
	if list.Count != 1 {
		t.Errorf("expected 1 upcoming birthday, got %d", list.Count)
	}

	var updated struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	resp = e.put(t, "/api/contacts/"+created.ID, token, map[string]string{
		"first_name": "Renamed",
	})
	e.decode(t, resp, http.StatusOK, "update contact", &updated)
	if updated.FirstName != "Renamed" {
		t.Errorf("expected first name Renamed, got %q", updated.FirstName)
	}
	if updated.LastName != "Tester" {
		t.Errorf("expected last name untouched, got %q", updated.LastName)
	}

	var deleted struct {
		ID string `json:"id"`
	}
	resp = e.del(t, "/api/contacts/"+created.ID, token)
	e.decode(t, resp, http.StatusOK, "delete contact", &deleted)
	if deleted.ID != created.ID {
		t.Errorf("delete returned id %q, want %q", deleted.ID, created.ID)
	}

	resp = e.get(t, "/api/contacts/"+created.ID, token)
	e.expect(t, resp, http.StatusNotFound, "get after delete")
}

// ============================================================================
// HTTP helpers
// ============================================================================

func (e *env) post(t *testing.T, path, token string, payload any) *http.Response {
	t.Helper()
	return e.request(t, http.MethodPost, path, token, payload)
}

func (e *env) put(t *testing.T, path, token string, payload any) *http.Response {
	t.Helper()
	return e.request(t, http.MethodPut, path, token, payload)
}

func (e *env) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return e.request(t, http.MethodGet, path, token, nil)
}

func (e *env) del(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return e.request(t, http.MethodDelete, path, token, nil)
}

func (e *env) request(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(e.ctx, method, e.baseURL+path, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func (e *env) expect(t *testing.T, resp *http.Response, status int, step string) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s: expected %d, got %d: %s", step, status, resp.StatusCode, data)
	}
}

func (e *env) decode(t *testing.T, resp *http.Response, status int, step string, out any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("%s: read body: %v", step, err)
	}
	if resp.StatusCode != status {
		t.Fatalf("%s: expected %d, got %d: %s", step, status, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("%s: decode response: %v\nBody: %s", step, err, data)
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hradmin/internal/domain/auth"
)

type fakeRevocations struct {
	revoked map[string]bool
}

func (f *fakeRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func issueToken(t *testing.T, secret string, ttl time.Duration) (string, string) {
	t.Helper()
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: 1, EmployeeID: 2, Username: "Jane Doe", RoleName: auth.RoleEmployee}, ttl)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	claims, err := auth.ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return token, claims.ID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload.Error.Code
}

func TestAuthSetsUserContext(t *testing.T) {
	secret := "test-secret"
	token, _ := issueToken(t, secret, time.Hour)

	called := false
	handler := Auth(secret, &fakeRevocations{revoked: map[string]bool{}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != 1 || user.EmployeeID != 2 || user.RoleName != auth.RoleEmployee {
			t.Fatalf("unexpected user: %+v", user)
		}
		if user.TokenID == "" {
			t.Fatal("expected token id in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("handler not reached")
	}
}

func TestAuthMissingTokenPassesThrough(t *testing.T) {
	handler := Auth("secret", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	handler := Auth("secret", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "token_invalid" {
		t.Fatalf("expected token_invalid, got %q", code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	secret := "test-secret"
	token, _ := issueToken(t, secret, -time.Minute)

	handler := Auth(secret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "token_expired" {
		t.Fatalf("expected token_expired, got %q", code)
	}
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	secret := "test-secret"
	token, jti := issueToken(t, secret, time.Hour)

	handler := Auth(secret, &fakeRevocations{revoked: map[string]bool{jti: true}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "token_revoked" {
		t.Fatalf("expected token_revoked, got %q", code)
	}
}

func TestRequireAuthBlocksAnonymous(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "token_missing" {
		t.Fatalf("expected token_missing, got %q", code)
	}
}

func TestRequireRole(t *testing.T) {
	secret := "test-secret"
	token, _ := issueToken(t, secret, time.Hour)

	chain := Auth(secret, nil)(RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("employee should not reach admin handler")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

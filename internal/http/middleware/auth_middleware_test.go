package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/security"
)

func newTestJWT() *security.JWTManager {
	return security.NewJWTManager("mw-test-secret-0123456789abcdef", "hrd-backend", "hrd-backend-api", time.Hour)
}

func okHandler(t *testing.T, wantSubject string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("expected claims in context")
		} else if claims.Subject != wantSubject {
			t.Errorf("unexpected subject %s", claims.Subject)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareCookie(t *testing.T) {
	jwt := newTestJWT()
	token, err := jwt.Issue("user-1", domain.RoleMember)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: security.AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwt)(okHandler(t, "user-1")).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddlewareBearer(t *testing.T) {
	jwt := newTestJWT()
	token, err := jwt.Issue("user-1", domain.RoleMember)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwt)(okHandler(t, "user-1")).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthMiddleware(newTestJWT())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	AuthMiddleware(newTestJWT())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOptionalAuthMiddlewarePassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	OptionalAuthMiddleware(newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); ok {
			t.Error("expected no claims for anonymous request")
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	jwt := newTestJWT()

	run := func(role string) int {
		token, err := jwt.Issue("user-1", role)
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		AuthMiddleware(jwt)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))).ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(domain.RoleAdmin); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
	if code := run(domain.RoleMember); code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", code)
	}
}

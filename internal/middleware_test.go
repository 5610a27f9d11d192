package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/model"
)

type stubUserLoader struct {
	user model.User
}

func (s stubUserLoader) GetUserByID(ctx context.Context, userID uuid.UUID) (model.User, error) {
	return s.user, nil
}

func TestMiddlewareValidJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	userID := uuid.New()
	tokenString, err := auth.MakeJWT(userID, "testsecret", time.Minute)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}

	var gotUserID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, err = auth.GetUserFromContext(r.Context())
		if err != nil {
			t.Fatalf("GetUserFromContext() error = %+v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	// No DB lookup happens on the valid-JWT path, so a nil Queries is
	// fine as long as no refresh token cookie is present.
	handler := Middleware(next, nil)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: tokenString})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != userID {
		t.Errorf("user ID in context = %v, want %v", gotUserID, userID)
	}
}

// Mirrors the admin route wiring: the session middleware must run in
// front of the role gate, otherwise the gate finds no user in context
// and bounces even a valid session to the login page.
func TestRoleGateBehindSessionMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	userID := uuid.New()
	tokenString, err := auth.MakeJWT(userID, "testsecret", time.Minute)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}

	newRouter := func(role model.Role) chi.Router {
		loader := stubUserLoader{user: model.User{UserID: userID, Role: role}}
		r := chi.NewRouter()
		r.Group(func(r chi.Router) {
			r.Use(
				func(next http.Handler) http.Handler { return Middleware(next, nil) },
				func(next http.Handler) http.Handler { return RequireModerator(next, loader) },
			)
			r.Get("/admin/reports", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
		return r
	}

	tests := []struct {
		name     string
		role     model.Role
		wantCode int
	}{
		{"moderator reaches the queue", model.RoleModerator, http.StatusOK},
		{"admin reaches the queue", model.RoleAdmin, http.StatusOK},
		{"plain user is forbidden", model.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/reports", nil)
			req.AddCookie(&http.Cookie{Name: "jwt", Value: tokenString})
			rec := httptest.NewRecorder()

			newRouter(tt.role).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("HX-Redirect"); got != "" {
				t.Errorf("unexpected redirect to %q for a valid session", got)
			}
		})
	}
}

func TestMiddlewareNoCookies(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without a session")
	})

	handler := Middleware(next, nil)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	// RefreshSession redirects htmx clients to the login page.
	if got := rec.Header().Get("HX-Redirect"); got != "/account/login" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/account/login")
	}
}

func TestMiddlewareExpiredJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	tokenString, err := auth.MakeJWT(uuid.New(), "testsecret", -time.Minute)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run with an expired JWT and no refresh token")
	})

	handler := Middleware(next, nil)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: tokenString})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/account/login" {
		t.Errorf("HX-Redirect = %q, want %q", got, "/account/login")
	}
}

// Package internal carries the HTTP middleware shared by the router.
package internal

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
)

// Middleware validates the client's JWT, refreshing it from the refresh
// token cookie when needed, and injects the user ID into the request
// context.
func Middleware(next http.Handler, db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check if the refresh token cookie still exists in the database.
		// If it doesn't, redirect to the login page.
		refreshTokCookie, err := r.Cookie("refresh_token")
		if err == nil {
			exists, err := db.DoesRefreshTokenExist(r.Context(), refreshTokCookie.Value)
			if err != nil || !exists {
				http.Redirect(w, r, "/account/login", http.StatusSeeOther)
				return
			}
		}

		// Validate the JWT if present. If valid, append the user ID to the
		// context and serve the next handler.
		jwtCookie, err := r.Cookie("jwt")
		if err == nil {
			userID, err := auth.ValidateJWT(jwtCookie.Value, os.Getenv("JWT_SECRET"))
			if err == nil {
				r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
				next.ServeHTTP(w, r)
				return
			}
		}

		// No valid JWT: exchange the refresh token for a new one.
		userID, err := auth.RefreshSession(w, r, db)
		if err != nil {
			log.Printf("middleware: %v", err)
			return
		}
		if userID == (uuid.UUID{}) {
			// RefreshSession already redirected to login.
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
		next.ServeHTTP(w, r)
	}
}

// userLoader is the slice of database.Queries the role gates need.
type userLoader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// RequireRole gates a handler on the caller's account role and ban
// status. Must run inside Middleware.
func RequireRole(next http.Handler, db userLoader, allowed func(model.Role) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.GetUserFromContext(r.Context())
		if err != nil {
			http.Redirect(w, r, "/account/login", http.StatusSeeOther)
			return
		}

		user, err := db.GetUserByID(r.Context(), userID)
		if err != nil {
			log.Printf("middleware: failed to load user for role check: %v", err)
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		if user.BannedAt != nil || !allowed(user.Role) {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireModerator allows moderators and admins.
func RequireModerator(next http.Handler, db userLoader) http.HandlerFunc {
	return RequireRole(next, db, model.Role.CanModerate)
}

// RequireAdmin allows admins only.
func RequireAdmin(next http.Handler, db userLoader) http.HandlerFunc {
	return RequireRole(next, db, func(r model.Role) bool { return r == model.RoleAdmin })
}

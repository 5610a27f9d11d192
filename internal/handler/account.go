package handler

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	viewAuth "github.com/lechange/lechange/components/auth"
	"github.com/lechange/lechange/components/ui"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
)

func ServeLoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := viewAuth.Login().Render(r.Context(), w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// SubmitLoginForm handles user login.
func SubmitLoginForm(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			log.Printf("failed to parse form values: %v", err)
			return
		}

		email := r.PostFormValue("email")
		password := r.PostFormValue("password")

		user, hashedPw, err := db.GetUserWithPasswordByEmail(ctx, email)
		if err != nil {
			if err := ui.ErrorMsg("Invalid email or password.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		ok, err := auth.CheckPasswordHash(password, hashedPw)
		if err != nil {
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("cannot verify password, hash may be corrupted: %v", err)
			return
		}
		if !ok {
			if err := ui.ErrorMsg("Invalid email or password.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		if user.BannedAt != nil {
			if err := ui.ErrorMsg("This account is suspended.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		refreshTokenExp := 7 * 24 * time.Hour
		jwtExp := 5 * time.Minute
		if err := auth.SetTokensAndCookies(w, r, db, user.UserID, refreshTokenExp, jwtExp); err != nil {
			log.Printf("%v", err)
			return
		}

		w.Header().Set("HX-Redirect", "/listings")
		w.WriteHeader(http.StatusOK)

		slog.InfoContext(ctx, "user logged in",
			slog.String("username", user.Username))
	}
}

func ServeSignupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := viewAuth.Signup().Render(r.Context(), w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// SubmitSignupForm handles user account creation.
func SubmitSignupForm(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if open, err := db.GetSetting(ctx, "registration_open"); err == nil && open == "false" {
			if err := ui.ErrorMsg("Registration is currently closed.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			log.Printf("failed to parse form values: %v", err)
			return
		}

		password := r.PostFormValue("password")
		confirmPw := r.PostFormValue("confirm_password")

		if password != confirmPw {
			if err := ui.ErrorMsg("Passwords do not match!").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		// Hash before touching the database so a hashing failure leaves
		// no orphaned user row.
		hashedPw, err := auth.HashPassword(password)
		if err != nil {
			http.Error(w, "Server error.", http.StatusInternalServerError)
			log.Printf("argon2id hash creation failed: %v", err)
			return
		}

		username := r.PostFormValue("username")
		email := r.PostFormValue("email")
		user, err := db.CreateUser(ctx, database.CreateUserParams{
			UserID:   uuid.New(),
			Username: username,
			Email:    email,
		})
		if err != nil {
			if err := ui.ErrorMsg("Username or email is already taken.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		err = db.CreatePassword(ctx, database.CreatePasswordParams{
			UserID:         user.UserID,
			HashedPassword: hashedPw,
		})
		if err != nil {
			http.Error(w, "Database error.", http.StatusInternalServerError)
			log.Printf("failed to create password entry in database: %v", err)
			return
		}

		w.Header().Set("HX-Redirect", "/account/login")
		w.WriteHeader(http.StatusOK)

		slog.InfoContext(ctx, "user signed up",
			slog.String("username", user.Username))
	}
}

// SubmitLogoutReq deletes the user's assigned refresh token, and
// redirects the user to the login page.
func SubmitLogoutReq(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		refreshTok, err := r.Cookie("refresh_token")
		if err == nil {
			if err := db.RevokeRefreshToken(ctx, refreshTok.Value); err != nil {
				log.Printf("failed to process token deletion: %v", err)
			}
		}

		auth.ClearSessionCookies(w)
		w.Header().Set("HX-Redirect", "/account/login")
		w.WriteHeader(http.StatusOK)
	}
}

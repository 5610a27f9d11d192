package auth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/database"
)

func setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both auth cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	setCookie(w, "jwt", "", -time.Second)
	setCookie(w, "refresh_token", "", -time.Second)
}

// SetTokensAndCookies mints a refresh token and a JWT for userID and
// attaches both as cookies.
func SetTokensAndCookies(w http.ResponseWriter, r *http.Request, db *database.Queries,
	userID uuid.UUID, refreshTTL, jwtTTL time.Duration,
) error {
	refreshTok, err := MakeRefreshToken(r.Context(), db, userID, refreshTTL)
	if err != nil {
		return fmt.Errorf("internal/auth: failed to make refresh token: %w", err)
	}

	jwtString, err := MakeJWT(userID, os.Getenv("JWT_SECRET"), jwtTTL)
	if err != nil {
		return fmt.Errorf("internal/auth: failed to make JWT: %w", err)
	}

	setCookie(w, "refresh_token", refreshTok, refreshTTL)
	setCookie(w, "jwt", jwtString, jwtTTL)
	return nil
}

// RefreshSession exchanges a live refresh token cookie for a fresh JWT
// cookie. A missing cookie redirects to login.
func RefreshSession(w http.ResponseWriter, r *http.Request, db *database.Queries) (uuid.UUID, error) {
	refreshTokCookie, err := r.Cookie("refresh_token")
	if err != nil {
		w.Header().Set("HX-Redirect", "/account/login")
		w.WriteHeader(http.StatusOK)
		return uuid.UUID{}, nil
	}

	userID, err := db.GetUserFromRefreshTok(r.Context(), refreshTokCookie.Value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("internal/auth: failed to retrieve user from refresh token: %w", err)
	}

	jwtTTL := 5 * time.Minute
	jwtString, err := MakeJWT(userID, os.Getenv("JWT_SECRET"), jwtTTL)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("internal/auth: failed to make JWT: %w", err)
	}

	setCookie(w, "jwt", jwtString, jwtTTL)
	return userID, nil
}

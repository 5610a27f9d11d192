package handler

import (
	"errors"
	"net/http"
)

// ServeRoot sends signed-in users to the marketplace and everyone else
// to the login page.
func ServeRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("refresh_token")
		if errors.Is(err, http.ErrNoCookie) {
			http.Redirect(w, r, "/account/login", http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/listings", http.StatusSeeOther)
	}
}

// ServeHealthz is the liveness probe.
func ServeHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	}
}

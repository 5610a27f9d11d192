package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	viewAdmin "github.com/lechange/lechange/components/admin"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
)

// ServeAdminUsers lists accounts for the admin user manager.
func ServeAdminUsers(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := db.ListUsers(ctx, 100)
		if err != nil {
			log.Printf("failed to list users: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewAdmin.Users(users).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// SetUserBan bans or unbans an account.
func SetUserBan(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "Invalid user.", http.StatusBadRequest)
			return
		}

		banned := r.PostFormValue("banned") == "true"
		if err := db.SetUserBanned(r.Context(), userID, banned); err != nil {
			http.Error(w, "User not found.", http.StatusNotFound)
			return
		}

		w.Header().Set("HX-Redirect", "/admin/users")
		w.WriteHeader(http.StatusOK)
	}
}

// SetUserRole promotes or demotes an account.
func SetUserRole(db *database.Queries) http.HandlerFunc {
	valid := map[string]model.Role{
		"user":      model.RoleUser,
		"moderator": model.RoleModerator,
		"admin":     model.RoleAdmin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "Invalid user.", http.StatusBadRequest)
			return
		}

		role, ok := valid[r.PostFormValue("role")]
		if !ok {
			http.Error(w, "Invalid role.", http.StatusBadRequest)
			return
		}

		if err := db.SetUserRole(r.Context(), userID, role); err != nil {
			http.Error(w, "User not found.", http.StatusNotFound)
			return
		}

		w.Header().Set("HX-Redirect", "/admin/users")
		w.WriteHeader(http.StatusOK)
	}
}

// ServeAdminCategories renders the category manager.
func ServeAdminCategories(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categories, err := db.ListCategories(ctx)
		if err != nil {
			log.Printf("failed to list categories: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewAdmin.Categories(categories).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}

// SubmitCategory creates a category.
func SubmitCategory(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.PostFormValue("name"))
		slug := slugify(name)
		if name == "" || slug == "" {
			http.Error(w, "Invalid category name.", http.StatusBadRequest)
			return
		}

		_, err := db.CreateCategory(r.Context(), database.CreateCategoryParams{
			CategoryID: uuid.New(),
			Name:       name,
			Slug:       slug,
		})
		if err != nil {
			http.Error(w, "Category already exists.", http.StatusConflict)
			return
		}

		w.Header().Set("HX-Redirect", "/admin/categories")
		w.WriteHeader(http.StatusOK)
	}
}

// RenameCategory renames a category, regenerating its slug.
func RenameCategory(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
		if err != nil {
			http.Error(w, "Invalid category.", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(r.PostFormValue("name"))
		slug := slugify(name)
		if name == "" || slug == "" {
			http.Error(w, "Invalid category name.", http.StatusBadRequest)
			return
		}

		if err := db.RenameCategory(r.Context(), categoryID, name, slug); err != nil {
			http.Error(w, "Category not found.", http.StatusNotFound)
			return
		}

		w.Header().Set("HX-Redirect", "/admin/categories")
		w.WriteHeader(http.StatusOK)
	}
}

// DeleteCategory removes an empty category.
func DeleteCategory(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
		if err != nil {
			http.Error(w, "Invalid category.", http.StatusBadRequest)
			return
		}

		if err := db.DeleteCategory(r.Context(), categoryID); err != nil {
			http.Error(w, "Category is not empty.", http.StatusConflict)
			return
		}

		w.Header().Set("HX-Redirect", "/admin/categories")
		w.WriteHeader(http.StatusOK)
	}
}

// ServeAdminSettings renders the site settings editor.
func ServeAdminSettings(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		settings, err := db.ListSettings(ctx)
		if err != nil {
			log.Printf("failed to list settings: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewAdmin.Settings(settings).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// editableSettings is the allow-list; anything else in the form is
// dropped.
var editableSettings = map[string]bool{
	"site_name":         true,
	"listings_per_page": true,
	"registration_open": true,
}

// SubmitSettings upserts the posted settings.
func SubmitSettings(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		for key, values := range r.PostForm {
			if !editableSettings[key] || len(values) == 0 {
				continue
			}
			if err := db.UpsertSetting(ctx, key, strings.TrimSpace(values[0])); err != nil {
				log.Printf("failed to save setting %q: %v", key, err)
				http.Error(w, "Database error.", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("HX-Redirect", "/admin/settings")
		w.WriteHeader(http.StatusOK)
	}
}

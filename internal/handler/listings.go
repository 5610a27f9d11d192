package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	viewListings "github.com/lechange/lechange/components/listings"
	"github.com/lechange/lechange/components/ui"
	"github.com/lechange/lechange/internal/auth"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/model"
)

var contentPolicy = bluemonday.StrictPolicy()

// ServeListings is the public browse page with filters and pagination.
func ServeListings(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		params := database.ListListingsParams{
			Search: strings.TrimSpace(q.Get("q")),
			After:  q.Get("after"),
			Limit:  20,
		}
		if raw := q.Get("category"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				params.CategoryID = id
			}
		}
		if raw := q.Get("min"); raw != "" {
			if cents, err := strconv.ParseInt(raw, 10, 64); err == nil {
				params.MinPriceCents = cents * 100
			}
		}
		if raw := q.Get("max"); raw != "" {
			if cents, err := strconv.ParseInt(raw, 10, 64); err == nil {
				params.MaxPriceCents = cents * 100
			}
		}

		listings, next, err := db.ListListings(ctx, params)
		if err != nil {
			log.Printf("failed to list listings: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		categories, err := db.ListCategories(ctx)
		if err != nil {
			log.Printf("failed to list categories: %v", err)
		}

		// htmx pagination fetches just the next page of cards.
		if r.Header.Get("HX-Request") == "true" && params.After != "" {
			if err := viewListings.Cards(listings, next).Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		if err := viewListings.Browse(listings, categories, next).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// ServeListingDetail renders one listing with the contact-seller entry
// point.
func ServeListingDetail(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
		if err != nil {
			http.Error(w, "Invalid listing.", http.StatusBadRequest)
			return
		}

		listing, err := db.GetListingByID(ctx, listingID)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if listing.Status == model.ListingRemoved {
			http.NotFound(w, r)
			return
		}

		viewerID, _ := auth.GetUserFromContext(ctx)

		if err := viewListings.Detail(listing, viewerID).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

// ServeListingForm renders the create/edit form.
func ServeListingForm(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categories, err := db.ListCategories(ctx)
		if err != nil {
			log.Printf("failed to list categories: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		var listing model.Listing
		if raw := chi.URLParam(r, "listingID"); raw != "" {
			listingID, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid listing.", http.StatusBadRequest)
				return
			}
			listing, err = db.GetListingByID(ctx, listingID)
			if err != nil {
				http.NotFound(w, r)
				return
			}

			userID, _ := auth.GetUserFromContext(ctx)
			if listing.SellerID != userID {
				http.Error(w, "Forbidden.", http.StatusForbidden)
				return
			}
		}

		if err := viewListings.Form(listing, categories).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

func parseListingForm(r *http.Request) (title, description string, categoryID uuid.UUID, priceCents int64, ok bool) {
	title = strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("title")))
	description = strings.TrimSpace(contentPolicy.Sanitize(r.PostFormValue("description")))

	categoryID, err := uuid.Parse(r.PostFormValue("category"))
	if err != nil {
		return "", "", uuid.UUID{}, 0, false
	}

	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil || price < 0 {
		return "", "", uuid.UUID{}, 0, false
	}
	priceCents = int64(price * 100)

	return title, description, categoryID, priceCents, title != ""
}

// SubmitListing creates a listing for the authenticated seller.
func SubmitListing(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		title, description, categoryID, priceCents, ok := parseListingForm(r)
		if !ok {
			if err := ui.ErrorMsg("Please fill out every field.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		listing, err := db.CreateListing(ctx, database.CreateListingParams{
			ListingID:   uuid.New(),
			SellerID:    userID,
			CategoryID:  categoryID,
			Title:       title,
			Description: description,
			PriceCents:  priceCents,
		})
		if err != nil {
			log.Printf("failed to create listing: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("HX-Redirect", "/listings/"+listing.ListingID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// UpdateListing edits a listing owned by the caller.
func UpdateListing(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
		if err != nil {
			http.Error(w, "Invalid listing.", http.StatusBadRequest)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data.", http.StatusBadRequest)
			return
		}

		title, description, categoryID, priceCents, ok := parseListingForm(r)
		if !ok {
			if err := ui.ErrorMsg("Please fill out every field.").Render(ctx, w); err != nil {
				log.Printf("failed to render component: %v", err)
			}
			return
		}

		err = db.UpdateListing(ctx, database.UpdateListingParams{
			ListingID:   listingID,
			SellerID:    userID,
			CategoryID:  categoryID,
			Title:       title,
			Description: description,
			PriceCents:  priceCents,
		})
		if err != nil {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		w.Header().Set("HX-Redirect", "/listings/"+listingID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// SetListingStatus handles the seller's mark-sold / archive / relist
// actions.
func SetListingStatus(db *database.Queries) http.HandlerFunc {
	valid := map[string]model.ListingStatus{
		"active":   model.ListingActive,
		"sold":     model.ListingSold,
		"archived": model.ListingArchived,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
		if err != nil {
			http.Error(w, "Invalid listing.", http.StatusBadRequest)
			return
		}

		status, ok := valid[r.PostFormValue("status")]
		if !ok {
			http.Error(w, "Invalid status.", http.StatusBadRequest)
			return
		}

		if err := db.SetListingStatusBySeller(ctx, listingID, userID, status); err != nil {
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}

		w.Header().Set("HX-Redirect", "/listings/"+listingID.String())
		w.WriteHeader(http.StatusOK)
	}
}

// ServeMyListings lists the caller's own listings, all statuses.
func ServeMyListings(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			return
		}

		listings, err := db.ListListingsBySeller(ctx, userID)
		if err != nil {
			log.Printf("failed to list seller listings: %v", err)
			http.Error(w, "Database error.", http.StatusInternalServerError)
			return
		}

		if err := viewListings.Mine(listings).Render(ctx, w); err != nil {
			log.Printf("failed to render component: %v", err)
		}
	}
}

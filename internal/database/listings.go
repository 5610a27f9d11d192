package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateListingParams struct {
	ListingID   uuid.UUID
	SellerID    uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Description string
	PriceCents  int64
}

func (q *Queries) CreateListing(ctx context.Context, arg CreateListingParams) (model.Listing, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO listings
			(listing_id, seller_id, category_id, title, description, price_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', now(), now())
		RETURNING listing_id, seller_id, category_id, title, description, price_cents, status, created_at, updated_at
	`, arg.ListingID, arg.SellerID, arg.CategoryID, arg.Title, arg.Description, arg.PriceCents)

	var l model.Listing
	err := row.Scan(&l.ListingID, &l.SellerID, &l.CategoryID, &l.Title,
		&l.Description, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (q *Queries) GetListingByID(ctx context.Context, listingID uuid.UUID) (model.Listing, error) {
	var l model.Listing
	err := q.db.QueryRow(ctx, `
		SELECT l.listing_id, l.seller_id, l.category_id, l.title, l.description,
		       l.price_cents, l.status, l.created_at, l.updated_at,
		       u.username, c.name
		FROM listings l
		JOIN users u ON u.user_id = l.seller_id
		JOIN categories c ON c.category_id = l.category_id
		WHERE l.listing_id = $1
	`, listingID).Scan(&l.ListingID, &l.SellerID, &l.CategoryID, &l.Title,
		&l.Description, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.SellerName, &l.CategoryName)
	if err != nil {
		return model.Listing{}, notFound(err)
	}
	return l, nil
}

// ListListingsParams filters the public browse query. Zero values mean
// "no filter"; MaxPriceCents of 0 is unbounded.
type ListListingsParams struct {
	CategoryID    uuid.UUID
	Search        string
	MinPriceCents int64
	MaxPriceCents int64
	After         string
	Limit         int
}

// ListListings returns active listings newest-first with keyset
// pagination over (created_at, listing_id), plus the cursor of the last
// row when a full page was returned.
func (q *Queries) ListListings(ctx context.Context, arg ListListingsParams) ([]model.Listing, string, error) {
	limit := clampLimit(arg.Limit)

	cur, err := DecodeCursor(arg.After)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var curCreatedAt, curID any
	if cur != nil {
		curCreatedAt = cur.CreatedAt
		curID = cur.ID
	}

	var categoryID any
	if arg.CategoryID != (uuid.UUID{}) {
		categoryID = arg.CategoryID
	}

	rows, err := q.db.Query(ctx, `
		SELECT l.listing_id, l.seller_id, l.category_id, l.title, l.description,
		       l.price_cents, l.status, l.created_at, l.updated_at,
		       u.username, c.name
		FROM listings l
		JOIN users u ON u.user_id = l.seller_id
		JOIN categories c ON c.category_id = l.category_id
		WHERE l.status = 'active'
		  AND ($1::uuid IS NULL OR l.category_id = $1)
		  AND ($2 = '' OR l.title ILIKE '%' || $2 || '%' OR l.description ILIKE '%' || $2 || '%')
		  AND l.price_cents >= $3
		  AND ($4 = 0 OR l.price_cents <= $4)
		  AND (
		    $5::timestamptz IS NULL
		    OR l.created_at < $5
		    OR (l.created_at = $5 AND l.listing_id < $6)
		  )
		ORDER BY l.created_at DESC, l.listing_id DESC
		LIMIT $7
	`, categoryID, arg.Search, arg.MinPriceCents, arg.MaxPriceCents, curCreatedAt, curID, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ListingID, &l.SellerID, &l.CategoryID, &l.Title,
			&l.Description, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
			&l.SellerName, &l.CategoryName); err != nil {
			return nil, "", err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		next = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ListingID})
	}
	return out, next, nil
}

func (q *Queries) ListListingsBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Listing, error) {
	rows, err := q.db.Query(ctx, `
		SELECT l.listing_id, l.seller_id, l.category_id, l.title, l.description,
		       l.price_cents, l.status, l.created_at, l.updated_at,
		       u.username, c.name
		FROM listings l
		JOIN users u ON u.user_id = l.seller_id
		JOIN categories c ON c.category_id = l.category_id
		WHERE l.seller_id = $1 AND l.status <> 'removed'
		ORDER BY l.created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ListingID, &l.SellerID, &l.CategoryID, &l.Title,
			&l.Description, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
			&l.SellerName, &l.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type UpdateListingParams struct {
	ListingID   uuid.UUID
	SellerID    uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Description string
	PriceCents  int64
}

// UpdateListing only touches rows owned by SellerID.
func (q *Queries) UpdateListing(ctx context.Context, arg UpdateListingParams) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE listings
		SET category_id = $3, title = $4, description = $5, price_cents = $6, updated_at = now()
		WHERE listing_id = $1 AND seller_id = $2
	`, arg.ListingID, arg.SellerID, arg.CategoryID, arg.Title, arg.Description, arg.PriceCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetListingStatusBySeller transitions status for the owning seller only.
func (q *Queries) SetListingStatusBySeller(ctx context.Context, listingID, sellerID uuid.UUID, status model.ListingStatus) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE listings SET status = $3, updated_at = now()
		WHERE listing_id = $1 AND seller_id = $2
	`, listingID, sellerID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveListing is the moderator path, no ownership check.
func (q *Queries) RemoveListing(ctx context.Context, listingID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE listings SET status = 'removed', updated_at = now()
		WHERE listing_id = $1
	`, listingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/lechange/lechange/internal/model"
)

type CreateCategoryParams struct {
	CategoryID uuid.UUID
	Name       string
	Slug       string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (model.Category, error) {
	var c model.Category
	err := q.db.QueryRow(ctx, `
		INSERT INTO categories (category_id, name, slug, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING category_id, name, slug, created_at
	`, arg.CategoryID, arg.Name, arg.Slug).Scan(&c.CategoryID, &c.Name, &c.Slug, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.Query(ctx, `
		SELECT category_id, name, slug, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) RenameCategory(ctx context.Context, categoryID uuid.UUID, name, slug string) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE categories SET name = $2, slug = $3 WHERE category_id = $1
	`, categoryID, name, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory fails on a foreign key violation while listings still
// reference the category; callers surface that to the admin.
func (q *Queries) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM categories WHERE category_id = $1`, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

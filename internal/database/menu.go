package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getMenuItem = `
SELECT id, name, category, description, price, is_available, prep_minutes, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	return scanMenuItem(row)
}

const listMenuItems = `
SELECT id, name, category, description, price, is_available, prep_minutes, created_at, updated_at
FROM menu_items
WHERE ($1::text IS NULL OR category = $1)
ORDER BY category, name
`

func (q *Queries) ListMenuItems(ctx context.Context, category pgtype.Text) ([]MenuItem, error) {
	var cat *string
	if category.Valid {
		cat = &category.String
	}
	rows, err := q.db.Query(ctx, listMenuItems, cat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Description, &m.Price,
			&m.IsAvailable, &m.PrepMinutes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const createMenuItem = `
INSERT INTO menu_items (name, category, description, price, is_available, prep_minutes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, category, description, price, is_available, prep_minutes, created_at, updated_at
`

type CreateMenuItemParams struct {
	Name        string
	Category    string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Name, arg.Category, arg.Description,
		arg.Price, arg.IsAvailable, arg.PrepMinutes)
	return scanMenuItem(row)
}

const upsertMenuItem = `
INSERT INTO menu_items (name, category, description, price, is_available, prep_minutes)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE
SET category = EXCLUDED.category,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    is_available = EXCLUDED.is_available,
    prep_minutes = EXCLUDED.prep_minutes,
    updated_at = now()
RETURNING id, name, category, description, price, is_available, prep_minutes, created_at, updated_at
`

// UpsertMenuItem is used only by the offline seeder, keyed on the
// unique item name.
func (q *Queries) UpsertMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, upsertMenuItem, arg.Name, arg.Category, arg.Description,
		arg.Price, arg.IsAvailable, arg.PrepMinutes)
	return scanMenuItem(row)
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, category = $3, description = $4, price = $5,
    is_available = $6, prep_minutes = $7, updated_at = now()
WHERE id = $1
RETURNING id, name, category, description, price, is_available, prep_minutes, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem, arg.ID, arg.Name, arg.Category, arg.Description,
		arg.Price, arg.IsAvailable, arg.PrepMinutes)
	return scanMenuItem(row)
}

const deleteMenuItem = `
DELETE FROM menu_items WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteMenuItem, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Description, &m.Price,
		&m.IsAvailable, &m.PrepMinutes, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getProfile = `
SELECT id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
FROM profiles
WHERE id = $1
`

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfile, id)
	return scanProfile(row)
}

const getProfileByEmail = `
SELECT id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
FROM profiles
WHERE email = $1
`

func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfileByEmail, email)
	return scanProfile(row)
}

const listCustomerProfiles = `
SELECT id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
FROM profiles
WHERE role = 'customer'
  AND ($1::text IS NULL OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListCustomerProfilesParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomerProfiles(ctx context.Context, arg ListCustomerProfilesParams) ([]Profile, error) {
	var search *string
	if arg.Search.Valid {
		search = &arg.Search.String
	}
	rows, err := q.db.Query(ctx, listCustomerProfiles, search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Role,
			&p.HashedPassword, &p.IsSuspended, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

const setProfileSuspended = `
UPDATE profiles
SET is_suspended = $2, updated_at = now()
WHERE id = $1
RETURNING id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
`

type SetProfileSuspendedParams struct {
	ID          uuid.UUID
	IsSuspended bool
}

func (q *Queries) SetProfileSuspended(ctx context.Context, arg SetProfileSuspendedParams) (Profile, error) {
	row := q.db.QueryRow(ctx, setProfileSuspended, arg.ID, arg.IsSuspended)
	return scanProfile(row)
}

const updateProfilePassword = `
UPDATE profiles
SET hashed_password = $2, updated_at = now()
WHERE id = $1
`

type UpdateProfilePasswordParams struct {
	ID             uuid.UUID
	HashedPassword string
}

func (q *Queries) UpdateProfilePassword(ctx context.Context, arg UpdateProfilePasswordParams) error {
	_, err := q.db.Exec(ctx, updateProfilePassword, arg.ID, arg.HashedPassword)
	return err
}

const updateProfileContact = `
UPDATE profiles
SET email = COALESCE(email, $2), phone = COALESCE(phone, $3), updated_at = now()
WHERE id = $1
`

type UpdateProfileContactParams struct {
	ID    uuid.UUID
	Email pgtype.Text
	Phone pgtype.Text
}

// UpdateProfileContact fills in missing email/phone without clobbering
// values already present. Used by the backfill utility.
func (q *Queries) UpdateProfileContact(ctx context.Context, arg UpdateProfileContactParams) error {
	_, err := q.db.Exec(ctx, updateProfileContact, arg.ID, arg.Email, arg.Phone)
	return err
}

const listProfilesMissingContact = `
SELECT id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
FROM profiles
WHERE email IS NULL OR phone IS NULL
ORDER BY created_at
`

func (q *Queries) ListProfilesMissingContact(ctx context.Context) ([]Profile, error) {
	rows, err := q.db.Query(ctx, listProfilesMissingContact)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Role,
			&p.HashedPassword, &p.IsSuspended, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

const createProfile = `
INSERT INTO profiles (full_name, email, phone, role, hashed_password, is_suspended)
VALUES ($1, $2, $3, $4, $5, false)
RETURNING id, full_name, email, phone, role, hashed_password, is_suspended, created_at, updated_at
`

type CreateProfileParams struct {
	FullName       string
	Email          pgtype.Text
	Phone          pgtype.Text
	Role           string
	HashedPassword pgtype.Text
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, createProfile, arg.FullName, arg.Email, arg.Phone, arg.Role, arg.HashedPassword)
	return scanProfile(row)
}

const getCustomerStats = `
SELECT count(*) AS total_orders,
       COALESCE(sum(total_amount) FILTER (WHERE status = 'Completed'), 0) AS total_spend
FROM orders
WHERE customer_id = $1
`

type GetCustomerStatsRow struct {
	TotalOrders int64
	TotalSpend  pgtype.Numeric
}

func (q *Queries) GetCustomerStats(ctx context.Context, customerID uuid.UUID) (GetCustomerStatsRow, error) {
	row := q.db.QueryRow(ctx, getCustomerStats, customerID)
	var r GetCustomerStatsRow
	err := row.Scan(&r.TotalOrders, &r.TotalSpend)
	return r, err
}

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Role,
		&p.HashedPassword, &p.IsSuspended, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

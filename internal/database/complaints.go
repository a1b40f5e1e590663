package database

import (
	"context"

	"github.com/google/uuid"
)

const getComplaint = `
SELECT id, customer_id, subject, description, status, created_at, updated_at, resolved_at
FROM complaints
WHERE id = $1
`

func (q *Queries) GetComplaint(ctx context.Context, id uuid.UUID) (Complaint, error) {
	row := q.db.QueryRow(ctx, getComplaint, id)
	return scanComplaint(row)
}

const listComplaints = `
SELECT id, customer_id, subject, description, status, created_at, updated_at, resolved_at
FROM complaints
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListComplaintsParams struct {
	Status NullComplaintStatus
	Limit  int32
	Offset int32
}

func (q *Queries) ListComplaints(ctx context.Context, arg ListComplaintsParams) ([]Complaint, error) {
	var status *string
	if arg.Status.Valid {
		s := string(arg.Status.ComplaintStatus)
		status = &s
	}
	rows, err := q.db.Query(ctx, listComplaints, status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var complaints []Complaint
	for rows.Next() {
		var c Complaint
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Subject, &c.Description,
			&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt); err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

const openComplaint = `
UPDATE complaints
SET status = 'Open', updated_at = now()
WHERE id = $1 AND status = 'Pending'
RETURNING id, customer_id, subject, description, status, created_at, updated_at, resolved_at
`

// OpenComplaint moves Pending to Open. Zero rows when the complaint is
// missing or not Pending.
func (q *Queries) OpenComplaint(ctx context.Context, id uuid.UUID) (Complaint, error) {
	row := q.db.QueryRow(ctx, openComplaint, id)
	return scanComplaint(row)
}

const resolveComplaint = `
UPDATE complaints
SET status = 'Resolved', resolved_at = now(), updated_at = now()
WHERE id = $1 AND status = 'Open'
RETURNING id, customer_id, subject, description, status, created_at, updated_at, resolved_at
`

// ResolveComplaint is only reachable through the respond flow; there is
// no standalone mark-resolved operation.
func (q *Queries) ResolveComplaint(ctx context.Context, id uuid.UUID) (Complaint, error) {
	row := q.db.QueryRow(ctx, resolveComplaint, id)
	return scanComplaint(row)
}

const reopenComplaint = `
UPDATE complaints
SET status = 'Open', resolved_at = NULL, updated_at = now()
WHERE id = $1 AND status = 'Resolved'
RETURNING id, customer_id, subject, description, status, created_at, updated_at, resolved_at
`

// ReopenComplaint clears resolved_at when forcing a complaint back to
// Open.
func (q *Queries) ReopenComplaint(ctx context.Context, id uuid.UUID) (Complaint, error) {
	row := q.db.QueryRow(ctx, reopenComplaint, id)
	return scanComplaint(row)
}

const createComplaintResponse = `
INSERT INTO complaint_responses (complaint_id, admin_id, message)
VALUES ($1, $2, $3)
RETURNING id, complaint_id, admin_id, message, created_at
`

type CreateComplaintResponseParams struct {
	ComplaintID uuid.UUID
	AdminID     uuid.UUID
	Message     string
}

func (q *Queries) CreateComplaintResponse(ctx context.Context, arg CreateComplaintResponseParams) (ComplaintResponse, error) {
	row := q.db.QueryRow(ctx, createComplaintResponse, arg.ComplaintID, arg.AdminID, arg.Message)
	var cr ComplaintResponse
	err := row.Scan(&cr.ID, &cr.ComplaintID, &cr.AdminID, &cr.Message, &cr.CreatedAt)
	return cr, err
}

const listComplaintResponses = `
SELECT id, complaint_id, admin_id, message, created_at
FROM complaint_responses
WHERE complaint_id = $1
ORDER BY created_at
`

func (q *Queries) ListComplaintResponses(ctx context.Context, complaintID uuid.UUID) ([]ComplaintResponse, error) {
	rows, err := q.db.Query(ctx, listComplaintResponses, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var responses []ComplaintResponse
	for rows.Next() {
		var cr ComplaintResponse
		if err := rows.Scan(&cr.ID, &cr.ComplaintID, &cr.AdminID, &cr.Message, &cr.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, cr)
	}
	return responses, rows.Err()
}

func scanComplaint(row interface{ Scan(...any) error }) (Complaint, error) {
	var c Complaint
	err := row.Scan(&c.ID, &c.CustomerID, &c.Subject, &c.Description,
		&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt)
	return c, err
}

package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const requestColumns = "id, employee_id, leave_type, application_date, start_date, end_date, status"

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &req.ApplicationDate, &req.StartDate, &req.EndDate, &req.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *Store) List(ctx context.Context, employeeID int64, limit, offset int) ([]Request, error) {
	query := "SELECT " + requestColumns + " FROM leaves ORDER BY id LIMIT $1 OFFSET $2"
	args := []any{limit, offset}
	if employeeID > 0 {
		query = "SELECT " + requestColumns + " FROM leaves WHERE employee_id = $3 ORDER BY id LIMIT $1 OFFSET $2"
		args = append(args, employeeID)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM leaves WHERE id = $1", id))
}

func (s *Store) Create(ctx context.Context, params RequestParams, applicationDate time.Time) (*Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leaves (employee_id, leave_type, application_date, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+requestColumns+`
  `, params.EmployeeID, params.LeaveType, applicationDate, params.StartDate, params.EndDate, params.Status))
}

// Update replaces every field except the application date, which stays at
// the original request time.
func (s *Store) Update(ctx context.Context, id int64, params RequestParams) (*Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leaves
    SET employee_id = $1, leave_type = $2, start_date = $3, end_date = $4, status = $5
    WHERE id = $6
    RETURNING `+requestColumns+`
  `, params.EmployeeID, params.LeaveType, params.StartDate, params.EndDate, params.Status, id))
}

func (s *Store) Patch(ctx context.Context, id int64, patch RequestPatch) (*Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := scanRequest(tx.QueryRow(ctx, `
    UPDATE leaves
    SET employee_id = COALESCE($1, employee_id),
        leave_type  = COALESCE($2, leave_type),
        start_date  = COALESCE($3, start_date),
        end_date    = COALESCE($4, end_date),
        status      = COALESCE($5, status)
    WHERE id = $6
    RETURNING `+requestColumns+`
  `, patch.EmployeeID, patch.LeaveType, patch.StartDate, patch.EndDate, patch.Status, id))
	if err != nil {
		return nil, err
	}

	// The merged range is only known after the update; an inverted range
	// rolls the whole change back.
	if err := ValidateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leaves WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

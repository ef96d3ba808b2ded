package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Clock performs one state-machine transition for (employeeID, today). The
// row is locked for the duration of the transaction and the unique
// (employee_id, work_date) constraint rejects the loser of a concurrent
// first clock-in instead of double-inserting.
func (s *Store) Clock(ctx context.Context, employeeID int64, now time.Time) (*ClockResult, error) {
	workDate := WorkDate(now)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing *Record
	row := tx.QueryRow(ctx, `
    SELECT id, employee_id, work_date, clock_in, clock_out, status
    FROM attendance
    WHERE employee_id = $1 AND work_date = $2
    FOR UPDATE
  `, employeeID, workDate)

	var rec Record
	switch err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.ClockIn, &rec.ClockOut, &rec.Status); {
	case err == nil:
		existing = &rec
	case errors.Is(err, pgx.ErrNoRows):
		existing = nil
	default:
		return nil, err
	}

	action, err := NextAction(existing)
	if err != nil {
		return nil, err
	}

	result := &ClockResult{}
	switch action {
	case ActionClockIn:
		err = tx.QueryRow(ctx, `
      INSERT INTO attendance (employee_id, work_date, clock_in, status)
      VALUES ($1, $2, $3, $4)
      RETURNING id, employee_id, work_date, clock_in, clock_out, status
    `, employeeID, workDate, now, StatusPresent).
			Scan(&result.Record.ID, &result.Record.EmployeeID, &result.Record.WorkDate,
				&result.Record.ClockIn, &result.Record.ClockOut, &result.Record.Status)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, ErrDuplicateClock
			}
			return nil, err
		}
		result.Created = true

	case ActionClockOut:
		err = tx.QueryRow(ctx, `
      UPDATE attendance
      SET clock_out = $1, status = $2
      WHERE id = $3
      RETURNING id, employee_id, work_date, clock_in, clock_out, status
    `, now, StatusCompleted, existing.ID).
			Scan(&result.Record.ID, &result.Record.EmployeeID, &result.Record.WorkDate,
				&result.Record.ClockIn, &result.Record.ClockOut, &result.Record.Status)
		if err != nil {
			return nil, err
		}
		result.Worked = Worked(result.Record.ClockIn, *result.Record.ClockOut)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) List(ctx context.Context, employeeID int64, limit, offset int) ([]Record, error) {
	query := `
    SELECT id, employee_id, work_date, clock_in, clock_out, status
    FROM attendance
    ORDER BY work_date DESC, id DESC
    LIMIT $1 OFFSET $2
  `
	args := []any{limit, offset}
	if employeeID > 0 {
		query = `
      SELECT id, employee_id, work_date, clock_in, clock_out, status
      FROM attendance
      WHERE employee_id = $3
      ORDER BY work_date DESC, id DESC
      LIMIT $1 OFFSET $2
    `
		args = append(args, employeeID)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.ClockIn, &rec.ClockOut, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, work_date, clock_in, clock_out, status
    FROM attendance
    WHERE id = $1
  `, id).Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.ClockIn, &rec.ClockOut, &rec.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

package payroll

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, employee_id, pay_date, base_salary, overtime, deductions, bonuses, total_pay"

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.PayDate, &rec.BaseSalary, &rec.Overtime, &rec.Deductions, &rec.Bonuses, &rec.TotalPay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, employeeID int64, limit, offset int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM payrolls ORDER BY id LIMIT $1 OFFSET $2"
	args := []any{limit, offset}
	if employeeID > 0 {
		query = "SELECT " + recordColumns + " FROM payrolls WHERE employee_id = $3 ORDER BY id LIMIT $1 OFFSET $2"
		args = append(args, employeeID)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM payrolls WHERE id = $1", id))
}

func (s *Store) Create(ctx context.Context, params RecordParams) (*Record, error) {
	total := ComputeTotal(params.BaseSalary, params.Overtime, params.Bonuses, params.Deductions)
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (employee_id, pay_date, base_salary, overtime, deductions, bonuses, total_pay)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+recordColumns+`
  `, params.EmployeeID, params.PayDate, params.BaseSalary, params.Overtime, params.Deductions, params.Bonuses, total))
}

func (s *Store) Update(ctx context.Context, id int64, params RecordParams) (*Record, error) {
	total := ComputeTotal(params.BaseSalary, params.Overtime, params.Bonuses, params.Deductions)
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE payrolls
    SET employee_id = $1, pay_date = $2, base_salary = $3, overtime = $4,
        deductions = $5, bonuses = $6, total_pay = $7
    WHERE id = $8
    RETURNING `+recordColumns+`
  `, params.EmployeeID, params.PayDate, params.BaseSalary, params.Overtime, params.Deductions, params.Bonuses, total, id))
}

// Patch merges the provided fields and recomputes the stored total whenever
// any pay component changed, all inside one transaction.
func (s *Store) Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := scanRecord(tx.QueryRow(ctx, `
    UPDATE payrolls
    SET employee_id = COALESCE($1, employee_id),
        pay_date    = COALESCE($2, pay_date),
        base_salary = COALESCE($3, base_salary),
        overtime    = COALESCE($4, overtime),
        deductions  = COALESCE($5, deductions),
        bonuses     = COALESCE($6, bonuses)
    WHERE id = $7
    RETURNING `+recordColumns+`
  `, patch.EmployeeID, patch.PayDate, patch.BaseSalary, patch.Overtime, patch.Deductions, patch.Bonuses, id))
	if err != nil {
		return nil, err
	}

	if patch.TouchesComponents() {
		rec.TotalPay = ComputeTotal(rec.BaseSalary, rec.Overtime, rec.Bonuses, rec.Deductions)
		if _, err := tx.Exec(ctx, "UPDATE payrolls SET total_pay = $1 WHERE id = $2", rec.TotalPay, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM payrolls WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

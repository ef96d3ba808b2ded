package tax

import (
	"context"
	"errors"

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

const recordColumns = "id, employee_id, tax_percentage, tax_amount, year"

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.TaxPercentage, &rec.TaxAmount, &rec.Year)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, employeeID int64, limit, offset int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM taxes ORDER BY id LIMIT $1 OFFSET $2"
	args := []any{limit, offset}
	if employeeID > 0 {
		query = "SELECT " + recordColumns + " FROM taxes WHERE employee_id = $3 ORDER BY id LIMIT $1 OFFSET $2"
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
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM taxes WHERE id = $1", id))
}

// Create enforces at most one record per (employee, year). The application
// pre-check gives the friendly error; the unique constraint settles races.
func (s *Store) Create(ctx context.Context, params RecordParams) (*Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM taxes WHERE employee_id = $1 AND year = $2",
		params.EmployeeID, params.Year).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateYear
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
    INSERT INTO taxes (employee_id, tax_percentage, tax_amount, year)
    VALUES ($1,$2,$3,$4)
    RETURNING `+recordColumns+`
  `, params.EmployeeID, params.TaxPercentage, params.TaxAmount, params.Year))
	if err != nil {
		return nil, classifyUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, id int64, params RecordParams) (*Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkYearFree(ctx, tx, params.EmployeeID, params.Year, id); err != nil {
		return nil, err
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
    UPDATE taxes
    SET employee_id = $1, tax_percentage = $2, tax_amount = $3, year = $4
    WHERE id = $5
    RETURNING `+recordColumns+`
  `, params.EmployeeID, params.TaxPercentage, params.TaxAmount, params.Year, id))
	if err != nil {
		return nil, classifyUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanRecord(tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM taxes WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, err
	}

	employeeID := current.EmployeeID
	if patch.EmployeeID != nil {
		employeeID = *patch.EmployeeID
	}
	year := current.Year
	if patch.Year != nil {
		year = *patch.Year
	}
	if employeeID != current.EmployeeID || year != current.Year {
		if err := checkYearFree(ctx, tx, employeeID, year, id); err != nil {
			return nil, err
		}
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
    UPDATE taxes
    SET employee_id    = COALESCE($1, employee_id),
        tax_percentage = COALESCE($2, tax_percentage),
        tax_amount     = COALESCE($3, tax_amount),
        year           = COALESCE($4, year)
    WHERE id = $5
    RETURNING `+recordColumns+`
  `, patch.EmployeeID, patch.TaxPercentage, patch.TaxAmount, patch.Year, id))
	if err != nil {
		return nil, classifyUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM taxes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func checkYearFree(ctx context.Context, tx pgx.Tx, employeeID int64, year int, excludeID int64) error {
	var count int
	err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM taxes
    WHERE employee_id = $1 AND year = $2 AND id <> $3
  `, employeeID, year, excludeID).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateYear
	}
	return nil
}

func classifyUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateYear
	}
	return err
}

package bonus

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

const recordColumns = "id, employee_id, amount, bonus_date, reason"

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Amount, &rec.BonusDate, &rec.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, employeeID int64, limit, offset int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM bonuses ORDER BY id LIMIT $1 OFFSET $2"
	args := []any{limit, offset}
	if employeeID > 0 {
		query = "SELECT " + recordColumns + " FROM bonuses WHERE employee_id = $3 ORDER BY id LIMIT $1 OFFSET $2"
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
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM bonuses WHERE id = $1", id))
}

// Create stamps the grant with the current date.
func (s *Store) Create(ctx context.Context, employeeID int64, amount float64, reason string, grantedAt time.Time) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO bonuses (employee_id, amount, bonus_date, reason)
    VALUES ($1,$2,$3,$4)
    RETURNING `+recordColumns+`
  `, employeeID, amount, grantedAt, reason))
}

// Update replaces everything except the grant date, which stays at the
// original award time.
func (s *Store) Update(ctx context.Context, id, employeeID int64, amount float64, reason string) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE bonuses
    SET employee_id = $1, amount = $2, reason = $3
    WHERE id = $4
    RETURNING `+recordColumns+`
  `, employeeID, amount, reason, id))
}

func (s *Store) Patch(ctx context.Context, id int64, patch RecordPatch) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    UPDATE bonuses
    SET employee_id = COALESCE($1, employee_id),
        amount      = COALESCE($2, amount),
        reason      = COALESCE($3, reason)
    WHERE id = $4
    RETURNING `+recordColumns+`
  `, patch.EmployeeID, patch.Amount, patch.Reason, id))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM bonuses WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain/auth"
	"hradmin/internal/platform/config"
)

// Seed is idempotent: every ensure step checks before inserting, so restarts
// never duplicate rows.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureDepartments(ctx, pool, cfg.SeedDepartments); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureDepartments(ctx context.Context, pool *pgxpool.Pool, names []string) error {
	for _, name := range names {
		_, err := pool.Exec(ctx, `
      INSERT INTO departments (name, description)
      VALUES ($1, $2)
      ON CONFLICT (name) DO NOTHING
    `, name, name+" department")
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id int64
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	var employeeID int64
	err = tx.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, date_of_birth, phone, email, gender, address, hire_date, position, salary)
    VALUES ('System', 'Administrator', $1, '', $2, '', '', $3, 'Admin', 0)
    RETURNING id
  `, now.AddDate(-30, 0, 0), email, now).Scan(&employeeID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
    INSERT INTO users (username, email, password_hash, role, employee_id)
    VALUES ('System Administrator', $1, $2, $3, $4)
  `, email, hash, auth.RoleAdmin, employeeID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

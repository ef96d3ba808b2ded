package auth

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

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, username, email, password_hash, role, COALESCE(employee_id, 0), mfa_enabled, created_at
    FROM users
    WHERE email = $1
  `, email)

	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.EmployeeID, &user.MFAEnabled, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, username, email, password_hash, role, COALESCE(employee_id, 0), mfa_enabled, created_at
    FROM users
    WHERE id = $1
  `, id)

	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.EmployeeID, &user.MFAEnabled, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Register creates the employee row and its user account in one transaction.
// For manager positions the department is claimed inside the same
// transaction so two concurrent registrations cannot both take it.
func (s *Store) Register(ctx context.Context, params RegisterParams) (*User, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE phone = $1", params.Phone).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPhoneTaken
	}
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE email = $1", params.Email).Scan(&count); err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var employeeID int64
	err = tx.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, date_of_birth, phone, email, gender, address, hire_date, position, salary)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, params.FirstName, params.LastName, params.DateOfBirth, params.Phone, params.Email,
		params.Gender, params.Address, params.HireDate, params.Position, params.Salary).Scan(&employeeID)
	if err != nil {
		return nil, classifyUnique(err)
	}

	if params.DepartmentID != nil {
		if err := claimDepartment(ctx, tx, *params.DepartmentID, employeeID); err != nil {
			return nil, err
		}
	}

	var user User
	err = tx.QueryRow(ctx, `
    INSERT INTO users (username, email, password_hash, role, employee_id)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, username, email, password_hash, role, employee_id, mfa_enabled, created_at
  `, params.Username, params.Email, params.PasswordHash, params.Role, employeeID).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.EmployeeID, &user.MFAEnabled, &user.CreatedAt)
	if err != nil {
		return nil, classifyUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

func claimDepartment(ctx context.Context, tx pgx.Tx, departmentID, employeeID int64) error {
	var managerID *int64
	err := tx.QueryRow(ctx, "SELECT manager_id FROM departments WHERE id = $1 FOR UPDATE", departmentID).Scan(&managerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDepartmentNotFound
		}
		return err
	}
	if managerID != nil {
		return ErrDepartmentHasManager
	}
	if _, err := tx.Exec(ctx, "UPDATE employees SET department_id = $1 WHERE id = $2", departmentID, employeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE departments SET manager_id = $1 WHERE id = $2", employeeID, departmentID); err != nil {
		return classifyManagerUnique(err)
	}
	return nil
}

// RevokeToken records the token's jti; the next request carrying it fails
// the revocation check. Re-revoking the same token is a no-op.
func (s *Store) RevokeToken(ctx context.Context, jti, rawToken string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO revoked_tokens (jti, token)
    VALUES ($1, $2)
    ON CONFLICT (jti) DO NOTHING
  `, jti, rawToken)
	return err
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM revoked_tokens WHERE jti = $1", jti).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) SetMFASecret(ctx context.Context, userID int64, secret string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret = $1, mfa_enabled = FALSE WHERE id = $2", secret, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID int64) (string, error) {
	var secret string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(mfa_secret, '') FROM users WHERE id = $1", userID).Scan(&secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return secret, nil
}

func (s *Store) EnableMFA(ctx context.Context, userID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = TRUE WHERE id = $1", userID)
	return err
}

func classifyUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func classifyManagerUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrManagerElsewhere
	}
	return err
}

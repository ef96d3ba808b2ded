package directory

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

const employeeColumns = `
  id, first_name, last_name, date_of_birth, phone, email, gender, address,
  hire_date, position, salary, department_id, supervisor_id, created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName, &emp.DateOfBirth, &emp.Phone, &emp.Email,
		&emp.Gender, &emp.Address, &emp.HireDate, &emp.Position, &emp.Salary,
		&emp.DepartmentID, &emp.SupervisorID, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    ORDER BY id
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE id = $1
  `, id))
}

func (s *Store) FindEmployeeByName(ctx context.Context, first, last string) (*Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE first_name = $1 AND last_name = $2
  `, first, last))
}

func (s *Store) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateEmployee(ctx context.Context, params EmployeeParams) (*Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, date_of_birth, phone, email, gender, address, hire_date, position, salary, department_id, supervisor_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING `+employeeColumns+`
  `, params.FirstName, params.LastName, params.DateOfBirth, params.Phone, params.Email,
		params.Gender, params.Address, params.HireDate, params.Position, params.Salary,
		params.DepartmentID, params.SupervisorID))
	if err != nil {
		return nil, classifyEmployeeUnique(err)
	}
	return emp, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, params EmployeeParams) (*Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, date_of_birth = $3, phone = $4, email = $5,
        gender = $6, address = $7, hire_date = $8, position = $9, salary = $10,
        department_id = $11, supervisor_id = $12, updated_at = now()
    WHERE id = $13
    RETURNING `+employeeColumns+`
  `, params.FirstName, params.LastName, params.DateOfBirth, params.Phone, params.Email,
		params.Gender, params.Address, params.HireDate, params.Position, params.Salary,
		params.DepartmentID, params.SupervisorID, id))
	if err != nil {
		return nil, classifyEmployeeUnique(err)
	}
	return emp, nil
}

func (s *Store) PatchEmployee(ctx context.Context, id int64, patch EmployeePatch) (*Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET first_name    = COALESCE($1, first_name),
        last_name     = COALESCE($2, last_name),
        date_of_birth = COALESCE($3, date_of_birth),
        phone         = COALESCE($4, phone),
        email         = COALESCE($5, email),
        gender        = COALESCE($6, gender),
        address       = COALESCE($7, address),
        hire_date     = COALESCE($8, hire_date),
        position      = COALESCE($9, position),
        salary        = COALESCE($10, salary),
        department_id = COALESCE($11, department_id),
        supervisor_id = COALESCE($12, supervisor_id),
        updated_at    = now()
    WHERE id = $13
    RETURNING `+employeeColumns+`
  `, patch.FirstName, patch.LastName, patch.DateOfBirth, patch.Phone, patch.Email,
		patch.Gender, patch.Address, patch.HireDate, patch.Position, patch.Salary,
		patch.DepartmentID, patch.SupervisorID, id))
	if err != nil {
		return nil, classifyEmployeeUnique(err)
	}
	return emp, nil
}

// DeleteEmployee removes the aggregation root. Ledger rows go with it via
// ON DELETE CASCADE; the linked user account and any department manager
// slot are released in the same transaction.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return tx.Commit(ctx)
}

// EmployeeNames resolves display names for a set of employee ids in one
// query; ids without a row are simply absent from the result.
func (s *Store) EmployeeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name
    FROM employees
    WHERE id = ANY($1)
  `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var first, last string
		if err := rows.Scan(&id, &first, &last); err != nil {
			return nil, err
		}
		names[id] = first + " " + last
	}
	return names, rows.Err()
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, d.description, d.manager_id,
           (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id)
    FROM departments d
    ORDER BY d.id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]Department, 0)
	for rows.Next() {
		var dept Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.ManagerID, &dept.EmployeeCount); err != nil {
			return nil, err
		}
		departments = append(departments, dept)
	}
	return departments, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	var dept Department
	err := s.DB.QueryRow(ctx, `
    SELECT d.id, d.name, d.description, d.manager_id,
           (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id)
    FROM departments d
    WHERE d.id = $1
  `, id).Scan(&dept.ID, &dept.Name, &dept.Description, &dept.ManagerID, &dept.EmployeeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (s *Store) ListDepartmentEmployees(ctx context.Context, id int64) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE department_id = $1
    ORDER BY id
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, name, description string, managerID *int64) (*Department, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if managerID != nil {
		if err := checkManagerFree(ctx, tx, *managerID, 0); err != nil {
			return nil, err
		}
	}

	var dept Department
	err = tx.QueryRow(ctx, `
    INSERT INTO departments (name, description, manager_id)
    VALUES ($1,$2,$3)
    RETURNING id, name, description, manager_id
  `, name, description, managerID).Scan(&dept.ID, &dept.Name, &dept.Description, &dept.ManagerID)
	if err != nil {
		return nil, classifyDepartmentUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &dept, nil
}

// UpdateDepartment reassigns name, description and manager. The exclusivity
// scan excludes the department itself so a no-op reassignment passes.
func (s *Store) UpdateDepartment(ctx context.Context, id int64, name, description string, managerID *int64) (*Department, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if managerID != nil {
		exists, err := employeeExistsTx(ctx, tx, *managerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrEmployeeNotFound
		}
		if err := checkManagerFree(ctx, tx, *managerID, id); err != nil {
			return nil, err
		}
	}

	var dept Department
	err = tx.QueryRow(ctx, `
    UPDATE departments
    SET name = $1, description = $2, manager_id = $3
    WHERE id = $4
    RETURNING id, name, description, manager_id
  `, name, description, managerID, id).Scan(&dept.ID, &dept.Name, &dept.Description, &dept.ManagerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, classifyDepartmentUnique(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &dept, nil
}

// DeleteDepartment refuses while any employee is still assigned, regardless
// of the manager slot.
func (s *Store) DeleteDepartment(ctx context.Context, id int64) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE department_id = $1", id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrDepartmentNotEmpty
	}

	tag, err := tx.Exec(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return tx.Commit(ctx)
}

func checkManagerFree(ctx context.Context, tx pgx.Tx, managerID, excludeDepartmentID int64) error {
	var count int
	err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM departments
    WHERE manager_id = $1 AND id <> $2
  `, managerID, excludeDepartmentID).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrManagerElsewhere
	}
	return nil
}

func employeeExistsTx(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func classifyDepartmentUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "departments_manager_id_key" {
			return ErrManagerElsewhere
		}
		return ErrDepartmentNameTaken
	}
	return err
}

func classifyEmployeeUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

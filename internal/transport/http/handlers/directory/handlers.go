package directoryhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/directory"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store *directory.Store
}

func NewHandler(store *directory.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR, auth.RoleManager)).Get("/", h.handleListEmployees)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequireAuth).Get("/me", h.handleMyProfile)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireAuth).Get("/", h.handleGetEmployee)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Patch("/", h.handlePatchEmployee)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListDepartments)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreateDepartment)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireAuth).Get("/", h.handleGetDepartment)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/", h.handleUpdateDepartment)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Patch("/", h.handlePatchDepartment)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/", h.handleDeleteDepartment)
		})
	})
}

type employeeRequest struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	DateOfBirth  string  `json:"dateOfBirth"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Gender       string  `json:"gender"`
	Address      string  `json:"address"`
	HireDate     string  `json:"hireDate"`
	Position     string  `json:"position"`
	Salary       float64 `json:"salary"`
	DepartmentID *int64  `json:"departmentId"`
	SupervisorID *int64  `json:"supervisorId"`
}

type employeePatchRequest struct {
	FirstName    *string  `json:"firstName"`
	LastName     *string  `json:"lastName"`
	DateOfBirth  *string  `json:"dateOfBirth"`
	Phone        *string  `json:"phone"`
	Email        *string  `json:"email"`
	Gender       *string  `json:"gender"`
	Address      *string  `json:"address"`
	HireDate     *string  `json:"hireDate"`
	Position     *string  `json:"position"`
	Salary       *float64 `json:"salary"`
	DepartmentID *int64   `json:"departmentId"`
	SupervisorID *int64   `json:"supervisorId"`
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ManagerID   *int64 `json:"managerId"`
}

// managerId uses a raw message so an explicit null (release the manager) can
// be told apart from the field being absent (keep the current manager).
type departmentPatchRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ManagerID   json.RawMessage `json:"managerId"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	// ?name= runs a full-name lookup instead of a paginated listing.
	if name := r.URL.Query().Get("name"); name != "" {
		first, last, err := directory.SplitFullName(name)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
			return
		}
		emp, err := h.Store.FindEmployeeByName(r.Context(), first, last)
		if err != nil {
			if errors.Is(err, directory.ErrEmployeeNotFound) {
				api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
				return
			}
			api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to search employees", reqID)
			return
		}
		api.Success(w, emp, reqID)
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	employees, err := h.Store.ListEmployees(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", reqID)
		return
	}
	api.Success(w, employees, reqID)
}

func (h *Handler) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if user.EmployeeID == 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "no employee profile linked to this account", reqID)
		return
	}
	emp, err := h.Store.GetEmployee(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", reqID)
		return
	}

	// The row exists, so an out-of-scope read is a 403 rather than a 404.
	if user.RoleName == auth.RoleEmployee && emp.ID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	params, ok := h.validateEmployee(w, payload, reqID)
	if !ok {
		return
	}

	emp, err := h.Store.CreateEmployee(r.Context(), params)
	if err != nil {
		h.writeEmployeeError(w, err, reqID)
		return
	}
	api.Created(w, emp, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	params, ok := h.validateEmployee(w, payload, reqID)
	if !ok {
		return
	}

	emp, err := h.Store.UpdateEmployee(r.Context(), id, params)
	if err != nil {
		h.writeEmployeeError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handlePatchEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload employeePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	patch := directory.EmployeePatch{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Gender:       payload.Gender,
		Address:      payload.Address,
		Position:     payload.Position,
		Salary:       payload.Salary,
		DepartmentID: payload.DepartmentID,
		SupervisorID: payload.SupervisorID,
	}
	if payload.Email != nil {
		v.Email("email", *payload.Email)
	}
	if payload.Phone != nil {
		v.Phone("phone", *payload.Phone)
	}
	if payload.Salary != nil && *payload.Salary < 0 {
		v.Add("salary", "must not be negative")
	}
	if payload.DateOfBirth != nil {
		if parsed, ok := v.Date("dateOfBirth", *payload.DateOfBirth); ok {
			patch.DateOfBirth = &parsed
		}
	}
	if payload.HireDate != nil {
		if parsed, ok := v.Date("hireDate", *payload.HireDate); ok {
			patch.HireDate = &parsed
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	emp, err := h.Store.PatchEmployee(r.Context(), id, patch)
	if err != nil {
		h.writeEmployeeError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		slog.Error("employee delete failed", "employeeId", id, "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_delete_failed", "failed to delete employee", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) validateEmployee(w http.ResponseWriter, payload employeeRequest, reqID string) (directory.EmployeeParams, bool) {
	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("position", payload.Position, "position is required")
	v.Email("email", payload.Email)
	v.Phone("phone", payload.Phone)
	dob, _ := v.Date("dateOfBirth", payload.DateOfBirth)
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	if payload.Salary < 0 {
		v.Add("salary", "must not be negative")
	}
	if v.Reject(w, reqID) {
		return directory.EmployeeParams{}, false
	}

	return directory.EmployeeParams{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		DateOfBirth:  dob,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Gender:       payload.Gender,
		Address:      payload.Address,
		HireDate:     hireDate,
		Position:     payload.Position,
		Salary:       payload.Salary,
		DepartmentID: payload.DepartmentID,
		SupervisorID: payload.SupervisorID,
	}, true
}

func (h *Handler) writeEmployeeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, directory.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, directory.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "conflict", "email address already exists", reqID)
	default:
		slog.Error("employee write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_write_failed", "failed to save employee", reqID)
	}
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", reqID)
		return
	}
	api.Success(w, departments, reqID)
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	dept, err := h.Store.GetDepartment(r.Context(), id)
	if err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}
	roster, err := h.Store.ListDepartmentEmployees(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_get_failed", "failed to load department roster", reqID)
		return
	}
	api.Success(w, map[string]any{"department": dept, "employees": roster}, reqID)
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, reqID) {
		return
	}

	dept, err := h.Store.CreateDepartment(r.Context(), payload.Name, payload.Description, payload.ManagerID)
	if err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}
	api.Created(w, dept, reqID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, reqID) {
		return
	}

	dept, err := h.Store.UpdateDepartment(r.Context(), id, payload.Name, payload.Description, payload.ManagerID)
	if err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}
	api.Success(w, dept, reqID)
}

// handlePatchDepartment merges the provided fields onto the stored row and
// reuses the full-update path so manager exclusivity is checked the same way.
func (h *Handler) handlePatchDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload departmentPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	current, err := h.Store.GetDepartment(r.Context(), id)
	if err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}

	name := current.Name
	if payload.Name != nil {
		name = *payload.Name
	}
	description := current.Description
	if payload.Description != nil {
		description = *payload.Description
	}
	managerID := current.ManagerID
	if len(payload.ManagerID) > 0 {
		if string(payload.ManagerID) == "null" {
			managerID = nil
		} else {
			var parsed int64
			if err := json.Unmarshal(payload.ManagerID, &parsed); err != nil || parsed <= 0 {
				api.Fail(w, http.StatusBadRequest, "validation_error", "managerId must be a positive integer or null", reqID)
				return
			}
			managerID = &parsed
		}
	}

	dept, err := h.Store.UpdateDepartment(r.Context(), id, name, description, managerID)
	if err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}
	api.Success(w, dept, reqID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	if err := h.Store.DeleteDepartment(r.Context(), id); err != nil {
		h.writeDepartmentError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) writeDepartmentError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, directory.ErrDepartmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", reqID)
	case errors.Is(err, directory.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, directory.ErrDepartmentNameTaken):
		api.Fail(w, http.StatusConflict, "conflict", "department name already exists", reqID)
	case errors.Is(err, directory.ErrManagerElsewhere):
		api.Fail(w, http.StatusConflict, "conflict", "employee already manages another department", reqID)
	case errors.Is(err, directory.ErrDepartmentNotEmpty):
		api.Fail(w, http.StatusConflict, "conflict", "department still has assigned employees", reqID)
	default:
		slog.Error("department write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "department_write_failed", "failed to save department", reqID)
	}
}

package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/directory"
	"hradmin/internal/domain/leave"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store     *leave.Store
	Directory *directory.Store
}

func NewHandler(store *leave.Store, dir *directory.Store) *Handler {
	return &Handler{Store: store, Directory: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/", h.handleList)
	r.With(middleware.RequireAuth).Post("/", h.handleCreate)
	r.With(middleware.RequireAuth).Get("/{id}", h.handleGet)
	r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Put("/{id}", h.handleUpdate)
	r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Patch("/{id}", h.handlePatch)
	r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Delete("/{id}", h.handleDelete)
}

type createRequest struct {
	EmployeeName string `json:"employeeName"`
	LeaveType    string `json:"leaveType"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Status       string `json:"status"`
}

type updateRequest struct {
	EmployeeID int64  `json:"employeeId"`
	LeaveType  string `json:"leaveType"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Status     string `json:"status"`
}

type patchRequest struct {
	EmployeeID *int64  `json:"employeeId"`
	LeaveType  *string `json:"leaveType"`
	StartDate  *string `json:"startDate"`
	EndDate    *string `json:"endDate"`
	Status     *string `json:"status"`
}

type requestResponse struct {
	leave.Request
	EmployeeName string `json:"employeeName,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r, 50, 200)

	var employeeID int64
	switch user.RoleName {
	case auth.RoleAdmin, auth.RoleHR:
		if raw := r.URL.Query().Get("employeeId"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				api.Fail(w, http.StatusBadRequest, "validation_error", "employeeId must be a positive integer", reqID)
				return
			}
			employeeID = parsed
		}
	default:
		if user.EmployeeID == 0 {
			api.Fail(w, http.StatusForbidden, "forbidden", "no employee profile linked to this account", reqID)
			return
		}
		employeeID = user.EmployeeID
	}

	requests, err := h.Store.List(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", reqID)
		return
	}

	decorated, err := h.decorate(r, requests)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", reqID)
		return
	}
	api.Success(w, decorated, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	req, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, leave.ErrRequestNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "leave_get_failed", "failed to load leave request", reqID)
		return
	}

	switch user.RoleName {
	case auth.RoleAdmin, auth.RoleHR:
	default:
		if req.EmployeeID != user.EmployeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", reqID)
			return
		}
	}

	decorated, err := h.decorate(r, []leave.Request{*req})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_get_failed", "failed to load leave request", reqID)
		return
	}
	api.Success(w, decorated[0], reqID)
}

// handleCreate resolves the employee by full name. Non-privileged users may
// only file for themselves and always start in Pending.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeName", payload.EmployeeName, "employee name is required")
	v.Required("leaveType", payload.LeaveType, "leave type is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	status := payload.Status
	if status == "" {
		status = leave.StatusPending
	}
	if !leave.ValidStatus(status) {
		v.Add("status", "must be one of Pending, Approved, Rejected")
	}
	if v.Reject(w, reqID) {
		return
	}

	emp, ok := h.resolveEmployee(w, r, payload.EmployeeName, reqID)
	if !ok {
		return
	}

	privileged := user.RoleName == auth.RoleAdmin || user.RoleName == auth.RoleHR
	if !privileged {
		if emp.ID != user.EmployeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot file leave for another employee", reqID)
			return
		}
		status = leave.StatusPending
	}

	req, err := h.Store.Create(r.Context(), leave.RequestParams{
		EmployeeID: emp.ID,
		LeaveType:  payload.LeaveType,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
	}, time.Now())
	if err != nil {
		slog.Error("leave create failed", "employeeId", emp.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "leave_create_failed", "failed to create leave request", reqID)
		return
	}
	api.Created(w, requestResponse{Request: *req, EmployeeName: emp.FullName()}, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	if payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be a positive integer")
	}
	v.Required("leaveType", payload.LeaveType, "leave type is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if !leave.ValidStatus(payload.Status) {
		v.Add("status", "must be one of Pending, Approved, Rejected")
	}
	if v.Reject(w, reqID) {
		return
	}

	if ok := h.requireEmployee(w, r, payload.EmployeeID, reqID); !ok {
		return
	}

	req, err := h.Store.Update(r.Context(), id, leave.RequestParams{
		EmployeeID: payload.EmployeeID,
		LeaveType:  payload.LeaveType,
		StartDate:  start,
		EndDate:    end,
		Status:     payload.Status,
	})
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []leave.Request{*req})
	if derr != nil {
		api.Success(w, req, reqID)
		return
	}
	api.Success(w, decorated[0], reqID)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	var payload patchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	patch := leave.RequestPatch{
		EmployeeID: payload.EmployeeID,
		LeaveType:  payload.LeaveType,
		Status:     payload.Status,
	}
	if payload.EmployeeID != nil && *payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be a positive integer")
	}
	if payload.Status != nil && !leave.ValidStatus(*payload.Status) {
		v.Add("status", "must be one of Pending, Approved, Rejected")
	}
	if payload.StartDate != nil {
		if parsed, ok := v.Date("startDate", *payload.StartDate); ok {
			patch.StartDate = &parsed
		}
	}
	if payload.EndDate != nil {
		if parsed, ok := v.Date("endDate", *payload.EndDate); ok {
			patch.EndDate = &parsed
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	if payload.EmployeeID != nil {
		if ok := h.requireEmployee(w, r, *payload.EmployeeID, reqID); !ok {
			return
		}
	}

	req, err := h.Store.Patch(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []leave.Request{*req})
	if derr != nil {
		api.Success(w, req, reqID)
		return
	}
	api.Success(w, decorated[0], reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) resolveEmployee(w http.ResponseWriter, r *http.Request, fullName, reqID string) (*directory.Employee, bool) {
	first, last, err := directory.SplitFullName(fullName)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return nil, false
	}
	emp, err := h.Directory.FindEmployeeByName(r.Context(), first, last)
	if err != nil {
		if errors.Is(err, directory.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return nil, false
		}
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", reqID)
		return nil, false
	}
	return emp, true
}

func (h *Handler) requireEmployee(w http.ResponseWriter, r *http.Request, employeeID int64, reqID string) bool {
	exists, err := h.Directory.EmployeeExists(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", reqID)
		return false
	}
	if !exists {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, "validation_error", "end date cannot be before start date", reqID)
	default:
		slog.Error("leave write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "leave_write_failed", "failed to save leave request", reqID)
	}
}

func (h *Handler) decorate(r *http.Request, requests []leave.Request) ([]requestResponse, error) {
	ids := make([]int64, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.EmployeeID)
	}
	names, err := h.Directory.EmployeeNames(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	out := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, requestResponse{Request: req, EmployeeName: names[req.EmployeeID]})
	}
	return out, nil
}

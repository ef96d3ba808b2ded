package payrollhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/directory"
	"hradmin/internal/domain/payroll"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store     *payroll.Store
	Directory *directory.Store
}

func NewHandler(store *payroll.Store, dir *directory.Store) *Handler {
	return &Handler{Store: store, Directory: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/", h.handleList)
	r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleGet)
		r.With(middleware.RequireAuth).Get("/payslip", h.handlePayslip)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/", h.handleUpdate)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Patch("/", h.handlePatch)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/", h.handleDelete)
	})
}

type createRequest struct {
	EmployeeName string  `json:"employeeName"`
	PayDate      string  `json:"payDate"`
	BaseSalary   float64 `json:"baseSalary"`
	Overtime     float64 `json:"overtime"`
	Deductions   float64 `json:"deductions"`
	Bonuses      float64 `json:"bonuses"`
}

type updateRequest struct {
	EmployeeID int64   `json:"employeeId"`
	PayDate    string  `json:"payDate"`
	BaseSalary float64 `json:"baseSalary"`
	Overtime   float64 `json:"overtime"`
	Deductions float64 `json:"deductions"`
	Bonuses    float64 `json:"bonuses"`
}

type patchRequest struct {
	EmployeeID *int64   `json:"employeeId"`
	PayDate    *string  `json:"payDate"`
	BaseSalary *float64 `json:"baseSalary"`
	Overtime   *float64 `json:"overtime"`
	Deductions *float64 `json:"deductions"`
	Bonuses    *float64 `json:"bonuses"`
}

type recordResponse struct {
	payroll.Record
	EmployeeName string `json:"employeeName,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r, 50, 200)

	var employeeID int64
	if user.IsAdmin() {
		if raw := r.URL.Query().Get("employeeId"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				api.Fail(w, http.StatusBadRequest, "validation_error", "employeeId must be a positive integer", reqID)
				return
			}
			employeeID = parsed
		}
	} else {
		// An account can lose its employee link (the employee row was
		// deleted); a zero id must not widen the scope to everyone.
		if user.EmployeeID == 0 {
			api.Fail(w, http.StatusForbidden, "forbidden", "no employee profile linked to this account", reqID)
			return
		}
		employeeID = user.EmployeeID
	}

	records, err := h.Store.List(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll records", reqID)
		return
	}

	decorated, err := h.decorate(r, records)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll records", reqID)
		return
	}
	api.Success(w, decorated, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	rec, ok := h.loadScoped(w, r, reqID)
	if !ok {
		return
	}

	decorated, err := h.decorate(r, []payroll.Record{*rec})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to load payroll record", reqID)
		return
	}
	api.Success(w, decorated[0], reqID)
}

// handlePayslip renders the record as an A4 PDF. Scope rules match the JSON
// read path.
func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	rec, ok := h.loadScoped(w, r, reqID)
	if !ok {
		return
	}

	emp, err := h.Directory.GetEmployee(r.Context(), rec.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", reqID)
		return
	}

	pdf, err := payroll.RenderPayslip(*rec, emp.FullName(), emp.Email)
	if err != nil {
		slog.Error("payslip render failed", "payrollId", rec.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+strconv.FormatInt(rec.ID, 10)+".pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("payslip write failed", "payrollId", rec.ID, "err", err)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeName", payload.EmployeeName, "employee name is required")
	payDate, _ := v.Date("payDate", payload.PayDate)
	if payload.BaseSalary < 0 {
		v.Add("baseSalary", "must not be negative")
	}
	if v.Reject(w, reqID) {
		return
	}

	first, last, err := directory.SplitFullName(payload.EmployeeName)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return
	}
	emp, err := h.Directory.FindEmployeeByName(r.Context(), first, last)
	if err != nil {
		if errors.Is(err, directory.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", reqID)
		return
	}

	rec, err := h.Store.Create(r.Context(), payroll.RecordParams{
		EmployeeID: emp.ID,
		PayDate:    payDate,
		BaseSalary: payload.BaseSalary,
		Overtime:   payload.Overtime,
		Deductions: payload.Deductions,
		Bonuses:    payload.Bonuses,
	})
	if err != nil {
		slog.Error("payroll create failed", "employeeId", emp.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_create_failed", "failed to create payroll record", reqID)
		return
	}
	api.Created(w, recordResponse{Record: *rec, EmployeeName: emp.FullName()}, reqID)
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
	payDate, _ := v.Date("payDate", payload.PayDate)
	if payload.BaseSalary < 0 {
		v.Add("baseSalary", "must not be negative")
	}
	if v.Reject(w, reqID) {
		return
	}

	exists, err := h.Directory.EmployeeExists(r.Context(), payload.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", reqID)
		return
	}
	if !exists {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
		return
	}

	rec, err := h.Store.Update(r.Context(), id, payroll.RecordParams{
		EmployeeID: payload.EmployeeID,
		PayDate:    payDate,
		BaseSalary: payload.BaseSalary,
		Overtime:   payload.Overtime,
		Deductions: payload.Deductions,
		Bonuses:    payload.Bonuses,
	})
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []payroll.Record{*rec})
	if derr != nil {
		api.Success(w, rec, reqID)
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
	patch := payroll.RecordPatch{
		EmployeeID: payload.EmployeeID,
		BaseSalary: payload.BaseSalary,
		Overtime:   payload.Overtime,
		Deductions: payload.Deductions,
		Bonuses:    payload.Bonuses,
	}
	if payload.EmployeeID != nil && *payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be a positive integer")
	}
	if payload.BaseSalary != nil && *payload.BaseSalary < 0 {
		v.Add("baseSalary", "must not be negative")
	}
	if payload.PayDate != nil {
		if parsed, ok := v.Date("payDate", *payload.PayDate); ok {
			patch.PayDate = &parsed
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	if payload.EmployeeID != nil {
		exists, err := h.Directory.EmployeeExists(r.Context(), *payload.EmployeeID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to resolve employee", reqID)
			return
		}
		if !exists {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
	}

	rec, err := h.Store.Patch(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []payroll.Record{*rec})
	if derr != nil {
		api.Success(w, rec, reqID)
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

// loadScoped fetches the record and applies the read scope: admins see all,
// everyone else only their own rows. The row exists on the 403 path.
func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request, reqID string) (*payroll.Record, bool) {
	user, _ := middleware.GetUser(r.Context())

	id, err := shared.PathID(r, "id")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		return nil, false
	}

	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, payroll.ErrRecordNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", reqID)
			return nil, false
		}
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to load payroll record", reqID)
		return nil, false
	}

	if !user.IsAdmin() && rec.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", reqID)
		return nil, false
	}
	return rec, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", reqID)
	default:
		slog.Error("payroll write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_write_failed", "failed to save payroll record", reqID)
	}
}

func (h *Handler) decorate(r *http.Request, records []payroll.Record) ([]recordResponse, error) {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.EmployeeID)
	}
	names, err := h.Directory.EmployeeNames(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, recordResponse{Record: rec, EmployeeName: names[rec.EmployeeID]})
	}
	return out, nil
}

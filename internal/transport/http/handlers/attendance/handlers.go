package attendancehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/attendance"
	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/directory"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store     *attendance.Store
	Directory *directory.Store
}

func NewHandler(store *attendance.Store, dir *directory.Store) *Handler {
	return &Handler{Store: store, Directory: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Post("/clock", h.handleClock)
	r.With(middleware.RequireAuth).Get("/", h.handleList)
	r.With(middleware.RequireAuth).Get("/{id}", h.handleGet)
	r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{id}", h.handleDelete)
}

type recordResponse struct {
	attendance.Record
	EmployeeName string `json:"employeeName,omitempty"`
}

func (h *Handler) handleClock(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if user.EmployeeID == 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "no employee profile linked to this account", reqID)
		return
	}

	result, err := h.Store.Clock(r.Context(), user.EmployeeID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrAlreadyCompleted), errors.Is(err, attendance.ErrDuplicateClock):
			api.Fail(w, http.StatusBadRequest, "already_clocked_out", "attendance already completed for today", reqID)
		default:
			slog.Error("clock failed", "employeeId", user.EmployeeID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "clock_failed", "failed to record attendance", reqID)
		}
		return
	}

	if result.Created {
		api.Created(w, map[string]any{"record": result.Record, "action": "clock_in"}, reqID)
		return
	}
	api.Success(w, map[string]any{
		"record":      result.Record,
		"action":      "clock_out",
		"workedHours": result.Worked.Hours(),
	}, reqID)
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

	records, err := h.Store.List(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", reqID)
		return
	}

	decorated, err := h.decorate(r, records)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", reqID)
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

	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "attendance record not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "attendance_get_failed", "failed to load attendance record", reqID)
		return
	}

	switch user.RoleName {
	case auth.RoleAdmin, auth.RoleHR:
	default:
		if rec.EmployeeID != user.EmployeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", reqID)
			return
		}
	}

	decorated, err := h.decorate(r, []attendance.Record{*rec})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_get_failed", "failed to load attendance record", reqID)
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
		if errors.Is(err, attendance.ErrRecordNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "attendance record not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "attendance_delete_failed", "failed to delete attendance record", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) decorate(r *http.Request, records []attendance.Record) ([]recordResponse, error) {
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

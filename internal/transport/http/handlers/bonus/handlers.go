package bonushandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/bonus"
	"hradmin/internal/domain/directory"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store     *bonus.Store
	Directory *directory.Store
}

func NewHandler(store *bonus.Store, dir *directory.Store) *Handler {
	return &Handler{Store: store, Directory: dir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/", h.handleList)
	r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Post("/", h.handleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Put("/", h.handleUpdate)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Patch("/", h.handlePatch)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleHR)).Delete("/", h.handleDelete)
	})
}

type createRequest struct {
	EmployeeName string  `json:"employeeName"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason"`
}

type updateRequest struct {
	EmployeeID int64   `json:"employeeId"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

type patchRequest struct {
	EmployeeID *int64   `json:"employeeId"`
	Amount     *float64 `json:"amount"`
	Reason     *string  `json:"reason"`
}

type recordResponse struct {
	bonus.Record
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

	records, err := h.Store.List(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "bonus_list_failed", "failed to list bonuses", reqID)
		return
	}

	decorated, err := h.decorate(r, records)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "bonus_list_failed", "failed to list bonuses", reqID)
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
		if errors.Is(err, bonus.ErrRecordNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "bonus not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "bonus_get_failed", "failed to load bonus", reqID)
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

	decorated, derr := h.decorate(r, []bonus.Record{*rec})
	if derr != nil {
		api.Success(w, rec, reqID)
		return
	}
	api.Success(w, decorated[0], reqID)
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
	v.Required("reason", payload.Reason, "reason is required")
	if err := bonus.ValidateAmount(payload.Amount); err != nil {
		v.Add("amount", err.Error())
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

	rec, err := h.Store.Create(r.Context(), emp.ID, payload.Amount, payload.Reason, time.Now())
	if err != nil {
		slog.Error("bonus create failed", "employeeId", emp.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "bonus_create_failed", "failed to create bonus", reqID)
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
	v.Required("reason", payload.Reason, "reason is required")
	if err := bonus.ValidateAmount(payload.Amount); err != nil {
		v.Add("amount", err.Error())
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

	rec, err := h.Store.Update(r.Context(), id, payload.EmployeeID, payload.Amount, payload.Reason)
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []bonus.Record{*rec})
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
	if payload.EmployeeID != nil && *payload.EmployeeID <= 0 {
		v.Add("employeeId", "must be a positive integer")
	}
	if payload.Amount != nil {
		if err := bonus.ValidateAmount(*payload.Amount); err != nil {
			v.Add("amount", err.Error())
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

	rec, err := h.Store.Patch(r.Context(), id, bonus.RecordPatch{
		EmployeeID: payload.EmployeeID,
		Amount:     payload.Amount,
		Reason:     payload.Reason,
	})
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}

	decorated, derr := h.decorate(r, []bonus.Record{*rec})
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

func (h *Handler) writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, bonus.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "bonus not found", reqID)
	default:
		slog.Error("bonus write failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "bonus_write_failed", "failed to save bonus", reqID)
	}
}

func (h *Handler) decorate(r *http.Request, records []bonus.Record) ([]recordResponse, error) {
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

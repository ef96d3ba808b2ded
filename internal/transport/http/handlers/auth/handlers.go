package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/directory"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/middleware"
	"hradmin/internal/transport/http/shared"
)

type Handler struct {
	Store     *auth.Store
	Directory *directory.Store
	Secret    string
	TokenTTL  time.Duration
}

func NewHandler(store *auth.Store, dir *directory.Store, secret string, ttl time.Duration) *Handler {
	return &Handler{Store: store, Directory: dir, Secret: secret, TokenTTL: ttl}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.With(middleware.RequireAuth).Post("/logout", h.handleLogout)
	r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	r.With(middleware.RequireAuth).Post("/mfa/setup", h.handleMFASetup)
	r.With(middleware.RequireAuth).Post("/mfa/verify", h.handleMFAVerify)
}

type registerRequest struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	DateOfBirth     string  `json:"dateOfBirth"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email"`
	Gender          string  `json:"gender"`
	Address         string  `json:"address"`
	HireDate        string  `json:"hireDate"`
	Position        string  `json:"position"`
	Salary          float64 `json:"salary"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	Role            string  `json:"role"`
	DepartmentID    *int64  `json:"departmentId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("position", payload.Position, "position is required")
	v.Required("password", payload.Password, "password is required")
	v.Email("email", payload.Email)
	v.Phone("phone", payload.Phone)
	dob, _ := v.Date("dateOfBirth", payload.DateOfBirth)
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	if payload.Salary < 0 {
		v.Add("salary", "must not be negative")
	}

	role := auth.DeriveRole(payload.Position)
	if payload.Role != "" {
		role = strings.ToLower(strings.TrimSpace(payload.Role))
		if !auth.ValidRole(role) {
			v.Add("role", "must be one of admin, manager, hr, employee")
		}
	}
	if role == auth.RoleManager && payload.DepartmentID == nil {
		v.Add("departmentId", "is required for manager positions")
	}
	if v.Reject(w, reqID) {
		return
	}

	if payload.Password != payload.ConfirmPassword {
		api.Fail(w, http.StatusUnprocessableEntity, "password_mismatch", "passwords do not match", reqID)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to process password", reqID)
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		username = strings.TrimSpace(payload.FirstName) + " " + strings.TrimSpace(payload.LastName)
	}

	var departmentID *int64
	if role == auth.RoleManager {
		departmentID = payload.DepartmentID
	}

	user, err := h.Store.Register(r.Context(), auth.RegisterParams{
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		DateOfBirth:  dob,
		Phone:        strings.TrimSpace(payload.Phone),
		Email:        strings.TrimSpace(payload.Email),
		Gender:       payload.Gender,
		Address:      payload.Address,
		HireDate:     hireDate,
		Position:     payload.Position,
		Salary:       payload.Salary,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
	})
	if err != nil {
		h.writeRegisterError(w, err, reqID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Username:   user.Username,
		RoleName:   user.Role,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}

	api.Created(w, map[string]any{"token": token, "user": user}, reqID)
}

func (h *Handler) writeRegisterError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		api.Fail(w, http.StatusUnprocessableEntity, "email_taken", "email address already exists", reqID)
	case errors.Is(err, auth.ErrPhoneTaken):
		api.Fail(w, http.StatusUnprocessableEntity, "phone_taken", "phone number already exists", reqID)
	case errors.Is(err, auth.ErrDepartmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", reqID)
	case errors.Is(err, auth.ErrDepartmentHasManager):
		api.Fail(w, http.StatusConflict, "conflict", "department already has a manager", reqID)
	case errors.Is(err, auth.ErrManagerElsewhere):
		api.Fail(w, http.StatusConflict, "conflict", "employee already manages another department", reqID)
	default:
		slog.Error("registration failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", reqID)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Store.FindUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "user_not_found", "no account for this email", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", reqID)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
			return
		}
		secret, err := h.Store.GetMFASecret(r.Context(), user.ID)
		if err != nil || secret == "" || !totp.Validate(payload.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
			return
		}
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Username:   user.Username,
		RoleName:   user.Role,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}

	api.Success(w, map[string]any{"token": token, "user": user}, reqID)
}

// handleLogout records the token's jti on the revocation list. The very next
// request carrying the same token is rejected by the auth middleware.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Store.RevokeToken(r.Context(), user.TokenID, user.RawToken); err != nil {
		slog.Error("token revocation failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to log out", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "logged_out"}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userCtx, _ := middleware.GetUser(r.Context())

	user, err := h.Store.GetUser(r.Context(), userCtx.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}

	response := map[string]any{"user": user}
	if user.EmployeeID > 0 {
		if emp, err := h.Directory.GetEmployee(r.Context(), user.EmployeeID); err == nil {
			response["employee"] = emp
		}
	}
	api.Success(w, response, reqID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userCtx, _ := middleware.GetUser(r.Context())

	user, err := h.Store.GetUser(r.Context(), userCtx.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "HRAdmin",
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", reqID)
		return
	}

	// Enrolment stays disabled until a code is verified.
	if err := h.Store.SetMFASecret(r.Context(), user.ID, key.Secret()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", reqID)
		return
	}

	api.Success(w, map[string]string{"secret": key.Secret(), "otpauthUrl": key.URL()}, reqID)
}

func (h *Handler) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userCtx, _ := middleware.GetUser(r.Context())

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	secret, err := h.Store.GetMFASecret(r.Context(), userCtx.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", reqID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", reqID)
		return
	}

	if err := h.Store.EnableMFA(r.Context(), userCtx.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_enable_failed", "failed to enable mfa", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "enabled"}, reqID)
}

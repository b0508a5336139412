package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/http/middleware"
	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/security"
	"github.com/hrd-community/hrd-backend/internal/service"
)

type AuthHandler struct {
	authSvc   *service.AuthService
	cookieMgr *security.CookieManager
	cfg       *config.Config
	sessionTTL time.Duration
}

func NewAuthHandler(authSvc *service.AuthService, cookieMgr *security.CookieManager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, cfg: cfg, sessionTTL: cfg.SessionTTL}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "register", "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, token, err := h.authSvc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "register", "failure")
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrPhoneTaken):
			observability.Audit(r, "auth.register.failed", "reason", "duplicate")
			response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
		case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			observability.Audit(r, "auth.register.failed", "reason", "internal", "error", err.Error())
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed", nil)
		}
		return
	}

	h.cookieMgr.SetAccessToken(w, token, h.sessionTTL)
	observability.Audit(r, "auth.register.success", "user_id", user.ID)
	observability.RecordAuthFlowEvent(r.Context(), "register", "success")
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": user, "token": token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "login", "failure")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Phone)
	}

	user, token, err := h.authSvc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "login", "failure")
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.Audit(r, "auth.login.failed", "reason", "invalid_credentials")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
			return
		}
		observability.Audit(r, "auth.login.failed", "reason", "internal", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		return
	}

	h.cookieMgr.SetAccessToken(w, token, h.sessionTTL)
	observability.Audit(r, "auth.login.success", "user_id", user.ID)
	observability.RecordAuthFlowEvent(r.Context(), "login", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookieMgr.ClearAccessToken(w)
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		observability.Audit(r, "auth.logout.success", "user_id", claims.Subject)
	}
	observability.RecordAuthFlowEvent(r.Context(), "logout", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", status, time.Since(start))
	}()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	resetURL, err := h.authSvc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "forgot", "failure")
		switch {
		case errors.Is(err, service.ErrResetDisabled):
			response.Error(w, r, http.StatusInternalServerError, "RESET_DISABLED", "password reset is not available", nil)
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "request failed", nil)
		}
		return
	}

	observability.Audit(r, "auth.forgot_password.requested")
	observability.RecordAuthFlowEvent(r.Context(), "forgot", "success")
	// The response never discloses whether the account exists. The reset
	// link is echoed back outside production for local testing.
	body := map[string]any{"message": "If the account exists, a reset link has been sent."}
	if resetURL != "" && !h.cfg.IsProduction() {
		body["resetUrl"] = resetURL
	}
	response.JSON(w, r, http.StatusOK, body)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reset_password", status, time.Since(start))
	}()

	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	if err := h.authSvc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		status = "failure"
		observability.RecordAuthFlowEvent(r.Context(), "reset", "failure")
		switch {
		case errors.Is(err, service.ErrResetDisabled):
			response.Error(w, r, http.StatusInternalServerError, "RESET_DISABLED", "password reset is not available", nil)
		case errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrResetTokenExpired), errors.Is(err, service.ErrWeakPassword):
			observability.Audit(r, "auth.reset_password.failed", "reason", err.Error())
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "reset failed", nil)
		}
		return
	}

	observability.Audit(r, "auth.reset_password.success")
	observability.RecordAuthFlowEvent(r.Context(), "reset", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	if err := h.authSvc.ChangePassword(r.Context(), claims.Subject, req.OldPassword, req.NewPassword); err != nil {
		observability.RecordAuthFlowEvent(r.Context(), "change_password", "failure")
		switch {
		case errors.Is(err, service.ErrWrongPassword), errors.Is(err, service.ErrWeakPassword):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrUserNotFound):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "account not found", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "change password failed", nil)
		}
		return
	}

	observability.Audit(r, "auth.change_password.success", "user_id", claims.Subject)
	observability.RecordAuthFlowEvent(r.Context(), "change_password", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"success": true})
}

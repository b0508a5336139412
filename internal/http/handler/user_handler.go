package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hrd-community/hrd-backend/internal/http/middleware"
	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/service"
)

type UserHandler struct {
	userSvc *service.UserService
}

func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	user, err := h.userSvc.GetProfile(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "account not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		PhotoURL *string `json:"photoUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, err := h.userSvc.UpdateProfile(r.Context(), claims.Subject, service.UpdateProfileInput{
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		observability.RecordUserProfileEvent(r.Context(), "failure")
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrUserNotFound):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "account not found", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "update failed", nil)
		}
		return
	}

	observability.Audit(r, "user.profile.updated", "user_id", user.ID)
	observability.RecordUserProfileEvent(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, user)
}

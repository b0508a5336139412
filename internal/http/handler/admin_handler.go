package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/repository"
	"github.com/hrd-community/hrd-backend/internal/service"
)

// AdminHandler serves the moderation and back-office endpoints. All routes
// sit behind RequireAdmin.
type AdminHandler struct {
	userSvc     *service.UserService
	postSvc     *service.PostService
	contactSvc  *service.ContactService
	memberships repository.MembershipRepository
}

func NewAdminHandler(
	userSvc *service.UserService,
	postSvc *service.PostService,
	contactSvc *service.ContactService,
	memberships repository.MembershipRepository,
) *AdminHandler {
	return &AdminHandler{
		userSvc:     userSvc,
		postSvc:     postSvc,
		contactSvc:  contactSvc,
		memberships: memberships,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	users, total, err := h.userSvc.List(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "list failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"users": users, "total": total})
}

func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	posts, total, err := h.postSvc.ListForModeration(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "list failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"posts": posts, "total": total})
}

func (h *AdminHandler) ModeratePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	post, err := h.postSvc.Moderate(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		observability.RecordModerationEvent(r.Context(), req.Status, "failure")
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "moderation failed", nil)
		}
		return
	}

	observability.Audit(r, "post.moderated", "post_id", post.ID, "status", post.Status)
	observability.RecordModerationEvent(r.Context(), post.Status, "success")
	response.JSON(w, r, http.StatusOK, post)
}

func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	msgs, total, err := h.contactSvc.List(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "list failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"messages": msgs, "total": total})
}

func (h *AdminHandler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	msg, err := h.contactSvc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "message not found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "update failed", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, msg)
}

// Stats returns headline counts for the admin dashboard.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	memberCount, err := h.memberships.Count(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "stats failed", nil)
		return
	}
	_, userCount, listErr := h.userSvc.List(r.Context(), 1, 0)
	if listErr != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "stats failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"users":       userCount,
		"memberships": memberCount,
	})
}

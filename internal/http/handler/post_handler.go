package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/http/middleware"
	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/service"
)

type PostHandler struct {
	postSvc *service.PostService
}

func NewPostHandler(postSvc *service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

func paginationParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func viewerFromContext(r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return claims.Subject, claims.Role == domain.RoleAdmin
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	var req struct {
		Title      string   `json:"title"`
		Content    string   `json:"content"`
		Type       string   `json:"type"`
		Categories []string `json:"categories"`
		Tags       []string `json:"tags"`
		Media      []string `json:"media"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	post, err := h.postSvc.Create(r.Context(), claims.Subject, service.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Type:       req.Type,
		Categories: req.Categories,
		Tags:       req.Tags,
		Media:      req.Media,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "create failed", nil)
		return
	}

	observability.Audit(r, "post.created", "post_id", post.ID, "author_id", claims.Subject)
	response.JSON(w, r, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	q := r.URL.Query()
	posts, total, err := h.postSvc.ListPublic(r.Context(), service.PublicFeedFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "list failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"posts": posts, "total": total})
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, viewerIsAdmin := viewerFromContext(r)
	post, err := h.postSvc.Get(r.Context(), chi.URLParam(r, "id"), viewerID, viewerIsAdmin)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	var req struct {
		Title      *string  `json:"title"`
		Content    *string  `json:"content"`
		Categories []string `json:"categories"`
		Tags       []string `json:"tags"`
		Media      []string `json:"media"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	post, err := h.postSvc.Update(r.Context(), chi.URLParam(r, "id"), claims.Subject, claims.Role == domain.RoleAdmin, service.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
		Tags:       req.Tags,
		Media:      req.Media,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
		case errors.Is(err, service.ErrForbidden):
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not your post", nil)
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "update failed", nil)
		}
		return
	}

	observability.Audit(r, "post.updated", "post_id", post.ID)
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	err := h.postSvc.Delete(r.Context(), chi.URLParam(r, "id"), claims.Subject, claims.Role == domain.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
		case errors.Is(err, service.ErrForbidden):
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "not your post", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "delete failed", nil)
		}
		return
	}

	observability.Audit(r, "post.deleted", "post_id", chi.URLParam(r, "id"))
	response.JSON(w, r, http.StatusOK, map[string]any{"success": true})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/service"
)

type ContactHandler struct {
	contactSvc *service.ContactService
}

func NewContactHandler(contactSvc *service.ContactService) *ContactHandler {
	return &ContactHandler{contactSvc: contactSvc}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	msg, err := h.contactSvc.Submit(r.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		observability.RecordContactIntake(r.Context(), "failure")
		if errors.Is(err, service.ErrInvalidInput) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "submission failed", nil)
		return
	}

	observability.RecordContactIntake(r.Context(), "success")
	response.JSON(w, r, http.StatusCreated, map[string]any{"id": msg.ID, "status": msg.Status})
}

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

type MembershipHandler struct {
	membershipSvc *service.MembershipService
}

func NewMembershipHandler(membershipSvc *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipSvc: membershipSvc}
}

// Apply is the anonymous membership application endpoint. It trades a
// verified-phone token for a membership card, creating the account if needed.
func (h *MembershipHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		Email         string `json:"email"`
		Address       string `json:"address"`
		DateOfBirth   string `json:"dateOfBirth"`
		PhotoURL      string `json:"photoUrl"`
		VerifiedToken string `json:"verifiedToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, membership, err := h.membershipSvc.Apply(r.Context(), service.MembershipApplyInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		DateOfBirth:   req.DateOfBirth,
		PhotoURL:      req.PhotoURL,
		VerifiedToken: req.VerifiedToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOTPExpired):
			response.Error(w, r, http.StatusBadRequest, "OTP_EXPIRED", "phone verification expired", nil)
		case errors.Is(err, service.ErrOTPInvalid):
			observability.Audit(r, "membership.apply.failed", "reason", "invalid_verified_token")
			response.Error(w, r, http.StatusBadRequest, "OTP_INVALID", "phone verification required", nil)
		case errors.Is(err, service.ErrOTPUnavailable):
			response.Error(w, r, http.StatusServiceUnavailable, "OTP_UNAVAILABLE", "otp verification is not available", nil)
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			observability.Audit(r, "membership.apply.failed", "reason", "internal", "error", err.Error())
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "application failed", nil)
		}
		return
	}

	observability.Audit(r, "membership.apply.success", "user_id", user.ID, "member_id", membership.MemberID)
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"memberId": membership.MemberID,
		"issuedAt": membership.IssuedAt,
		"user":     user,
	})
}

// Generate mints a candidate member id without persisting anything. The id
// is only reserved once a membership row is created with it.
func (h *MembershipHandler) Generate(w http.ResponseWriter, r *http.Request) {
	memberID, _, err := h.membershipSvc.GenerateUniqueMemberID(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "id generation failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"memberId": memberID})
}

// Lookup finds or creates an account and card by name and phone, without a
// phone-verification proof. Used for reprints at in-person registration desks.
func (h *MembershipHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, membership, err := h.membershipSvc.LookupOrCreate(r.Context(), service.MembershipApplyInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		observability.Audit(r, "membership.lookup.failed", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}

	observability.Audit(r, "membership.lookup.success", "user_id", user.ID, "member_id", membership.MemberID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":       user,
		"membership": membership,
	})
}

// EnsureMine issues the authenticated user's card if they do not have one yet
// and returns it either way.
func (h *MembershipHandler) EnsureMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	membership, err := h.membershipSvc.EnsureForUser(r.Context(), claims.Subject, "self_ensure")
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "issuance failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"membership": membership})
}

// Mine returns the authenticated user's membership card.
func (h *MembershipHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	membership, err := h.membershipSvc.GetForUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "no membership on record", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, membership)
}

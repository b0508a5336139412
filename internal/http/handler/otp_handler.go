package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hrd-community/hrd-backend/internal/http/response"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/service"
)

type OTPHandler struct {
	otpSvc *service.OTPService
}

func NewOTPHandler(otpSvc *service.OTPService) *OTPHandler {
	return &OTPHandler{otpSvc: otpSvc}
}

func (h *OTPHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	result, err := h.otpSvc.Start(r.Context(), req.Phone)
	if err != nil {
		observability.RecordOTPFlowEvent(r.Context(), "start", "failure")
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrOTPUnavailable):
			response.Error(w, r, http.StatusServiceUnavailable, "OTP_UNAVAILABLE", "otp verification is not available", nil)
		default:
			observability.Audit(r, "otp.start.failed", "error", err.Error())
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not send otp", nil)
		}
		return
	}

	observability.Audit(r, "otp.start.success")
	observability.RecordOTPFlowEvent(r.Context(), "start", "success")
	body := map[string]any{"message": "otp sent", "token": result.Token}
	if result.DevCode != "" {
		body["devCode"] = result.DevCode
	}
	response.JSON(w, r, http.StatusOK, body)
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	result, err := h.otpSvc.Verify(r.Context(), req.Token, req.Code)
	if err != nil {
		observability.RecordOTPFlowEvent(r.Context(), "verify", "failure")
		switch {
		case errors.Is(err, service.ErrOTPExpired):
			response.Error(w, r, http.StatusBadRequest, "OTP_EXPIRED", "otp expired, request a new code", nil)
		case errors.Is(err, service.ErrOTPInvalid):
			observability.Audit(r, "otp.verify.failed", "reason", "invalid_code_or_token")
			response.Error(w, r, http.StatusBadRequest, "OTP_INVALID", "invalid otp", nil)
		case errors.Is(err, service.ErrOTPUnavailable):
			response.Error(w, r, http.StatusServiceUnavailable, "OTP_UNAVAILABLE", "otp verification is not available", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		}
		return
	}

	observability.Audit(r, "otp.verify.success")
	observability.RecordOTPFlowEvent(r.Context(), "verify", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":       "phone verified",
		"verifiedToken": result.Token,
		"phone":         result.Phone,
	})
}

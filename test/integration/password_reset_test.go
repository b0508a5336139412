package integration

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/hrd-community/hrd-backend/internal/config"
)

func TestForgotPasswordAlwaysAccepts(t *testing.T) {
	baseURL, client, closeFn := newTestServer(t)
	defer closeFn()

	registerAndLogin(t, client, baseURL, "Known", "known@example.org", "", "sastra108")

	knownResp, knownBody := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/forgot", map[string]string{
		"email": "known@example.org",
	})
	unknownResp, unknownBody := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/forgot", map[string]string{
		"email": "unknown@example.org",
	})
	if knownResp.StatusCode != http.StatusOK || unknownResp.StatusCode != http.StatusOK {
		t.Fatalf("forgot must answer 200 for both, got %d and %d", knownResp.StatusCode, unknownResp.StatusCode)
	}
	if knownBody["message"] != unknownBody["message"] {
		t.Fatalf("messages must not distinguish accounts: %v vs %v", knownBody["message"], unknownBody["message"])
	}
	// Outside production the link is echoed for the known account only.
	if _, ok := knownBody["resetUrl"]; !ok {
		t.Fatal("expected resetUrl echo for known account in test env")
	}
	if _, ok := unknownBody["resetUrl"]; ok {
		t.Fatal("resetUrl echo for unknown account leaks existence")
	}
}

func TestPasswordResetRoundtrip(t *testing.T) {
	email := &captureEmailSender{}
	baseURL, client, closeFn := newTestServerWithOptions(t, testServerOptions{email: email})
	defer closeFn()

	registerAndLogin(t, client, baseURL, "Reset Me", "reset@example.org", "", "old-password")

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/forgot", map[string]string{
		"email": "reset@example.org",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forgot failed: status=%d body=%v", resp.StatusCode, body)
	}
	to, mailBody := email.Last()
	if to != "reset@example.org" || !strings.Contains(mailBody, "/reset-password?token=") {
		t.Fatalf("reset mail not delivered as expected: to=%q", to)
	}

	resetURL, _ := body["resetUrl"].(string)
	parsed, err := url.Parse(resetURL)
	if err != nil {
		t.Fatalf("parse reset url %q: %v", resetURL, err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in reset url %q", resetURL)
	}

	resp, body = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/reset", map[string]string{
		"token":    token,
		"password": "new-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset failed: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", map[string]string{
		"email":    "reset@example.org",
		"password": "old-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password should be rejected, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", map[string]string{
		"email":    "reset@example.org",
		"password": "new-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new password should log in, got %d", resp.StatusCode)
	}
}

func TestPasswordResetRejectsGarbageToken(t *testing.T) {
	baseURL, client, closeFn := newTestServer(t)
	defer closeFn()

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/reset", map[string]string{
		"token":    "not.a.token",
		"password": "whatever-new",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", resp.StatusCode, body)
	}
}

func TestForgotPasswordDisabledWithoutSecret(t *testing.T) {
	baseURL, client, closeFn := newTestServerWithOptions(t, testServerOptions{
		cfgOverride: func(cfg *config.Config) { cfg.AuthSecret = "" },
	})
	defer closeFn()

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/forgot", map[string]string{
		"email": "anyone@example.org",
	})
	if resp.StatusCode != http.StatusInternalServerError || errCode(t, body) != "RESET_DISABLED" {
		t.Fatalf("expected RESET_DISABLED, got status=%d body=%v", resp.StatusCode, body)
	}
}

func TestChangePassword(t *testing.T) {
	baseURL, client, closeFn := newTestServer(t)
	defer closeFn()

	registerAndLogin(t, client, baseURL, "Changer", "change@example.org", "", "first-pass")

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/change", map[string]string{
		"oldPassword": "wrong",
		"newPassword": "second-pass",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong old password: expected 400, got %d (%v)", resp.StatusCode, body)
	}

	resp, body = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/password/change", map[string]string{
		"oldPassword": "first-pass",
		"newPassword": "second-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change failed: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", map[string]string{
		"email":    "change@example.org",
		"password": "second-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password failed: %d", resp.StatusCode)
	}
}

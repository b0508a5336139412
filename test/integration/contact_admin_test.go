package integration

import (
	"net/http"
	"testing"

	"github.com/hrd-community/hrd-backend/internal/config"
)

func TestContactIntakeAndAdminWorkflow(t *testing.T) {
	baseURL, client, closeFn := newTestServerWithOptions(t, testServerOptions{
		cfgOverride: func(cfg *config.Config) {
			cfg.BootstrapAdminEmail = "admin@example.org"
		},
	})
	defer closeFn()

	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/contact", map[string]string{
		"name":    "Visitor",
		"email":   "visitor@example.org",
		"subject": "Event enquiry",
		"message": "When is the next satsang?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("contact submit failed: status=%d body=%v", resp.StatusCode, body)
	}
	msgID, _ := body["id"].(string)
	if body["status"] != "NEW" {
		t.Fatalf("expected NEW status, got %v", body["status"])
	}

	resp, body = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/contact", map[string]string{
		"name": "No Message",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message should 400, got %d (%v)", resp.StatusCode, body)
	}

	registerAndLogin(t, client, baseURL, "Admin", "admin@example.org", "", "sastra108")

	resp, body = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/admin/contact", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin contact list failed: status=%d body=%v", resp.StatusCode, body)
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", body)
	}

	resp, body = doJSON(t, client, http.MethodPatch, baseURL+"/api/v1/admin/contact/"+msgID+"/status", map[string]string{
		"status": "READ",
	})
	if resp.StatusCode != http.StatusOK || body["status"] != "READ" {
		t.Fatalf("status update failed: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, client, http.MethodPatch, baseURL+"/api/v1/admin/contact/"+msgID+"/status", map[string]string{
		"status": "BOGUS",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status should 400, got %d (%v)", resp.StatusCode, body)
	}
}

func TestAdminStatsAndUserList(t *testing.T) {
	baseURL, client, closeFn := newTestServerWithOptions(t, testServerOptions{
		cfgOverride: func(cfg *config.Config) {
			cfg.BootstrapAdminEmail = "admin@example.org"
		},
	})
	defer closeFn()

	registerAndLogin(t, client, baseURL, "Member One", "one@example.org", "", "sastra108")
	// Logging in mints the member's card before the admin takes over.
	resp, _ := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", map[string]string{
		"email":    "one@example.org",
		"password": "sastra108",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}
	registerAndLogin(t, client, baseURL, "Admin", "admin@example.org", "", "sastra108")

	resp, body := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/admin/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats failed: status=%d body=%v", resp.StatusCode, body)
	}
	if users, _ := body["users"].(float64); users != 2 {
		t.Fatalf("expected 2 users, got %v", body["users"])
	}
	if memberships, _ := body["memberships"].(float64); memberships != 1 {
		t.Fatalf("expected 1 membership, got %v", body["memberships"])
	}

	resp, body = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/admin/users?limit=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user list failed: status=%d body=%v", resp.StatusCode, body)
	}
	if list, _ := body["users"].([]any); len(list) != 2 {
		t.Fatalf("expected 2 users in list, got %v", body)
	}
	if total, _ := body["total"].(float64); total != 2 {
		t.Fatalf("expected total 2, got %v", body["total"])
	}
}

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/database"
	"github.com/hrd-community/hrd-backend/internal/http/handler"
	"github.com/hrd-community/hrd-backend/internal/http/router"
	"github.com/hrd-community/hrd-backend/internal/notify"
	"github.com/hrd-community/hrd-backend/internal/repository"
	"github.com/hrd-community/hrd-backend/internal/security"
	"github.com/hrd-community/hrd-backend/internal/service"
)

const testAuthSecret = "integration-secret-0123456789abcdef"

// captureEmailSender records outbound mail instead of delivering it.
type captureEmailSender struct {
	mu       sync.Mutex
	lastTo   string
	lastBody string
}

func (s *captureEmailSender) SendEmail(_ context.Context, to, _, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTo = to
	s.lastBody = htmlBody
	return nil
}

func (s *captureEmailSender) Last() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTo, s.lastBody
}

type captureSMSSender struct {
	mu       sync.Mutex
	lastTo   string
	lastBody string
}

func (s *captureSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTo = to
	s.lastBody = body
	return nil
}

type testServerOptions struct {
	cfgOverride func(cfg *config.Config)
	email       notify.EmailSender
	sms         notify.SMSSender
}

func newTestServer(t *testing.T) (string, *http.Client, func()) {
	return newTestServerWithOptions(t, testServerOptions{})
}

func newTestServerWithOptions(t *testing.T, opts testServerOptions) (string, *http.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Env:                 "test",
		AuthSecret:          testAuthSecret,
		JWTIssuer:           "hrd-backend",
		JWTAudience:         "hrd-backend-api",
		SessionTTL:          time.Hour,
		CookieSecure:        false,
		CookieSameSite:      "lax",
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		AppOrigin:           "http://localhost:3000",
		AuthRateLimitPerMin: 1000,
		APIRateLimitPerMin:  1000,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	postRepo := repository.NewPostRepository(db)
	contactRepo := repository.NewContactMessageRepository(db)

	jwtMgr := security.NewJWTManager(cfg.AuthSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL)
	codec := security.NewTokenCodec(cfg.AuthSecret)
	cookieMgr := security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)

	otpSvc := service.NewOTPService(codec, opts.sms, cfg, discard)
	membershipSvc := service.NewMembershipService(membershipRepo, userRepo, otpSvc, discard)
	authSvc := service.NewAuthService(userRepo, membershipSvc, jwtMgr, codec, opts.email, cfg, discard)
	userSvc := service.NewUserService(userRepo)
	postSvc := service.NewPostService(postRepo)
	contactSvc := service.NewContactService(contactRepo)

	r := router.NewRouter(router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authSvc, cookieMgr, cfg),
		OTPHandler:        handler.NewOTPHandler(otpSvc),
		MembershipHandler: handler.NewMembershipHandler(membershipSvc),
		UserHandler:       handler.NewUserHandler(userSvc),
		PostHandler:       handler.NewPostHandler(postSvc),
		ContactHandler:    handler.NewContactHandler(contactSvc),
		AdminHandler:      handler.NewAdminHandler(userSvc, postSvc, contactSvc, membershipRepo),
		JWTManager:        jwtMgr,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		EnableOTelHTTP:    false,
	})

	srv := httptest.NewServer(r)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	return srv.URL, client, srv.Close
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var payload []byte
	var err error
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, out
}

func errCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL, name, email, phone, password string) map[string]any {
	t.Helper()
	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: status=%d body=%v", resp.StatusCode, body)
	}
	user, _ := body["user"].(map[string]any)
	return user
}

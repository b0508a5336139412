package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// ErrNoEmailSender signals that no delivery backend is configured at all.
var ErrNoEmailSender = errors.New("no email sender configured")

// EmailSender delivers an HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender delivers mail over authenticated SMTP.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, username: username, password: password, from: from}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// ResendSender delivers mail through the Resend HTTPS API.
type ResendSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		apiKey:     apiKey,
		from:       from,
		baseURL:    "https://api.resend.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *ResendSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend responded %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// ChainSender tries each backend in order and stops at the first success.
// The password-reset flow pairs SMTP with Resend as its fallback.
type ChainSender struct {
	senders []EmailSender
	logger  *slog.Logger
}

func NewChainSender(logger *slog.Logger, senders ...EmailSender) *ChainSender {
	return &ChainSender{senders: senders, logger: logger}
}

func (c *ChainSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if len(c.senders) == 0 {
		return ErrNoEmailSender
	}
	var lastErr error
	for _, s := range c.senders {
		if err := s.SendEmail(ctx, to, subject, htmlBody); err != nil {
			lastErr = err
			c.logger.Warn("email backend failed, trying next",
				slog.String("backend", fmt.Sprintf("%T", s)),
				slog.String("error", err.Error()),
			)
			continue
		}
		return nil
	}
	return fmt.Errorf("all email backends failed: %w", lastErr)
}

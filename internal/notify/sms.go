package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioClient sends SMS through the Twilio Messages API.
type TwilioClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTwilioClient(accountSID, authToken, from string, logger *slog.Logger) *TwilioClient {
	return &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", NormalizePhone(to))
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("twilio rejected message",
			slog.Int("status", resp.StatusCode),
			slog.String("detail", string(detail)),
		)
		return fmt.Errorf("twilio responded %d", resp.StatusCode)
	}
	return nil
}

// NormalizePhone strips everything but digits (keeping a leading +) and
// prefixes bare 10-digit Indian numbers with +91. Numbers that already carry
// a country code keep it.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	hasPlus := strings.HasPrefix(trimmed, "+")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	if hasPlus {
		return "+" + digits
	}
	if len(digits) == 10 {
		return "+91" + digits
	}
	return digits
}

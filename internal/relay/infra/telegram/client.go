package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"gopkg.in/validator.v2"
)

// Client sends messages on behalf of whichever bot token the caller supplies
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig configures NewClient. BaseURL is required; a nil HTTPClient
// gets a default one built from Timeout.
type ClientConfig struct {
	BaseURL string `validate:"nonzero"`
	// Timeout bounds a single provider call; zero leaves it to the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient validates cfg and returns a Client targeting cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func (c *Client) sendMessageURL(botToken string) string {
	return c.baseURL + "/bot" + botToken + "/sendMessage"
}

// SendMessage posts msg to the sendMessage endpoint of botToken's bot.
// The call is made once; non-2xx answers are returned as *core.UpstreamError.
func (c *Client) SendMessage(ctx context.Context, botToken string, msg core.OutboundNotification) (*core.DeliveryReceipt, error) {
	payloadBytes, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal Telegram message payload",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendMessageURL(botToken), bytes.NewBuffer(payloadBytes))
	if err != nil {
		// the error text would echo the URL and with it the bot token
		slog.ErrorContext(ctx, "Failed to create HTTP request for Telegram API")
		return nil, fmt.Errorf("failed to create request: invalid bot token or base URL")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send Telegram message",
			slog.String("error", redact(err.Error(), botToken)))
		return nil, fmt.Errorf("failed to send request: %s", redact(err.Error(), botToken))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read error response: %w", err)
		}
		slog.WarnContext(ctx, "Telegram API returned non-success status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response", string(bodyBytes)))
		return nil, core.NewUpstreamError(resp.StatusCode, string(bodyBytes))
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return &core.DeliveryReceipt{StatusCode: resp.StatusCode}, nil
}

// redact removes the bot token from transport error messages, which quote the URL
func redact(message, botToken string) string {
	if botToken == "" {
		return message
	}
	return strings.ReplaceAll(message, botToken, "<redacted>")
}

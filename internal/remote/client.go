// Package remote implements the HTTP client for the remote ledger service.
//
// Every response carries a {status, data} envelope. A non-"success" status
// from a reachable endpoint and a transport failure are surfaced as distinct
// sentinel errors so callers can present them, but both are recoverable and
// neither is retried here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// ClientConfig configures the remote ledger client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration // default 30s

	// TokenSource supplies the opaque session token, if any. The token is
	// forwarded as a bearer credential; the server is responsible for
	// validating it on write.
	TokenSource func() string
}

// Client is the remote ledger service client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokenSource func() string
}

// NewClient creates a remote ledger client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     config.BaseURL,
		tokenSource: config.TokenSource,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Detail  string          `json:"detail,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FetchRecords returns the complete record set for the user.
func (c *Client) FetchRecords(ctx context.Context, userID string) ([]core.Record, error) {
	var records []core.Record
	path := "/user-data/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return records, nil
}

// ParseExpense submits free text for AI-assisted parsing and returns the
// structured record the server produced and stored.
func (c *Client) ParseExpense(ctx context.Context, userID, text string) (core.Record, error) {
	body := struct {
		Text   string `json:"text"`
		UserID string `json:"user_id"`
	}{Text: text, UserID: userID}

	var record core.Record
	if err := c.do(ctx, http.MethodPost, "/parse-expense", body, &record); err != nil {
		return core.Record{}, fmt.Errorf("parse expense: %w", err)
	}
	return record, nil
}

// UpdateRecord replaces the full record under recordID.
func (c *Client) UpdateRecord(ctx context.Context, userID, recordID string, rec core.Record) error {
	path := "/user-data/" + url.PathEscape(userID) + "/" + url.PathEscape(recordID)
	if err := c.do(ctx, http.MethodPut, path, rec, nil); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record under recordID.
func (c *Client) DeleteRecord(ctx context.Context, userID, recordID string) error {
	path := "/user-data/" + url.PathEscape(userID) + "/" + url.PathEscape(recordID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// FetchProfile returns the user's settings document.
func (c *Client) FetchProfile(ctx context.Context, userID string) (core.Profile, error) {
	var profile core.Profile
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID), nil, &profile); err != nil {
		return core.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return profile, nil
}

// SaveProfile replaces the user's settings document wholesale.
func (c *Client) SaveProfile(ctx context.Context, userID string, p core.Profile) error {
	if err := c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(userID), p, nil); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// do performs one round-trip and decodes the envelope's data into out when
// out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	slog.DebugContext(ctx, "remote call", "method", method, "path", path, log.FieldRequestID, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", core.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Status != "success" {
		reason := env.Message
		if reason == "" {
			reason = env.Detail
		}
		if reason == "" {
			reason = resp.Status
		}
		return fmt.Errorf("%w: %s", core.ErrRemoteRejected, reason)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", core.ErrTransport, err)
		}
	}
	return nil
}

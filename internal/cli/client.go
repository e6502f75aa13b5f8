package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/bankmirror/internal/modules/accounts"
	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	"github.com/aristath/bankmirror/internal/modules/transactions"
	"github.com/google/uuid"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// APIClient talks to the bank mirror REST API.
type APIClient struct {
	baseURL     string
	apiKey      string
	bankHeaders map[string]string
	http        *http.Client
}

// NewAPIClient creates a client for s.
func NewAPIClient(s Settings) *APIClient {
	return &APIClient{
		baseURL:     s.APIURL,
		apiKey:      s.APIKey,
		bankHeaders: s.BankHeaders,
		http:        &http.Client{Timeout: 60 * time.Second},
	}
}

// BalancesResult is the balances endpoint body.
type BalancesResult struct {
	Data      []accounts.BalanceSummary `json:"data"`
	Refreshed bool                      `json:"refreshed"`
}

// TransactionsResult is the transactions endpoint body.
type TransactionsResult struct {
	Data      []transactions.TransactionRecord `json:"data"`
	Refreshed bool                             `json:"refreshed"`
}

// Status fetches /api/system/status. Used to verify credentials.
func (c *APIClient) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/api/system/status", nil, nil, &out)
	return out, err
}

// Balances returns the balances of userID, refreshing upstream when refresh is set.
func (c *APIClient) Balances(ctx context.Context, userID string, refresh bool) (*BalancesResult, error) {
	q := url.Values{}
	if refresh {
		q.Set("refresh", "true")
	}
	var out BalancesResult
	err := c.do(ctx, http.MethodGet, "/api/clients/"+url.PathEscape(userID)+"/balances", q, nil, &out)
	return &out, err
}

// TransactionFilter holds the optional transaction query parameters.
type TransactionFilter struct {
	Refresh   bool
	State     string
	Direction string
	Limit     int
}

// Transactions returns the transactions of accountID.
func (c *APIClient) Transactions(ctx context.Context, accountID string, f TransactionFilter) (*TransactionsResult, error) {
	q := url.Values{}
	if f.Refresh {
		q.Set("refresh", "true")
	}
	if f.State != "" {
		q.Set("transactionState", f.State)
	}
	if f.Direction != "" {
		q.Set("transactionDirection", f.Direction)
	}
	if f.Limit > 0 {
		q.Set("paging-first", strconv.Itoa(f.Limit))
	}
	var out TransactionsResult
	err := c.do(ctx, http.MethodGet, "/api/accounts/"+url.PathEscape(accountID)+"/transactions", q, nil, &out)
	return &out, err
}

// Orders lists stored orders.
func (c *APIClient) Orders(ctx context.Context) ([]orders.Order, error) {
	var out struct {
		Data []orders.Order `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out)
	return out.Data, err
}

// CreateOrder stores a new order.
func (c *APIClient) CreateOrder(ctx context.Context, in orders.OrderCreate) (*orders.Order, error) {
	var out orders.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", nil, in, &out)
	return &out, err
}

// UpdateOrderStatus sets the status of order id.
func (c *APIClient) UpdateOrderStatus(ctx context.Context, id int64, status string) (*orders.Order, error) {
	var out orders.Order
	path := "/api/orders/" + strconv.FormatInt(id, 10) + "/status"
	err := c.do(ctx, http.MethodPost, path, nil, orders.StatusUpdate{Status: status}, &out)
	return &out, err
}

// SyncLogs returns the most recent sync log entries.
func (c *APIClient) SyncLogs(ctx context.Context, limit int) ([]synclog.Entry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Data []synclog.Entry `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/sync-logs", q, nil, &out)
	return out.Data, err
}

// Settings returns the masked server configuration.
func (c *APIClient) Settings(ctx context.Context) (*settings.AppConfiguration, error) {
	var out settings.AppConfiguration
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &out)
	return &out, err
}

// UpdateSettings applies update and returns the masked result.
func (c *APIClient) UpdateSettings(ctx context.Context, update settings.SettingsUpdate) (*settings.AppConfiguration, error) {
	var out settings.AppConfiguration
	err := c.do(ctx, http.MethodPut, "/api/settings", nil, update, &out)
	return &out, err
}

func (c *APIClient) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	for k, v := range c.bankHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(bytes.TrimSpace(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

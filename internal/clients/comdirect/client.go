// Package comdirect provides the retrying HTTP client for the comdirect
// banking REST API.
package comdirect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.comdirect.de/api/"

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryPolicy
}

// Client exposes the banking and session endpoints. It keeps no state
// between calls; authentication headers are passed per call.
type Client struct {
	exec *Executor
	log  zerolog.Logger
}

// NewClient creates a client with its own executor.
func NewClient(cfg Config, log zerolog.Logger, opts ...ExecutorOption) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts() == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	base := []ExecutorOption{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithRetryPolicy(cfg.Retry),
	}
	exec, err := NewExecutor(cfg.BaseURL, log, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return NewClientWithExecutor(exec, log), nil
}

// NewClientWithExecutor wraps an existing executor.
func NewClientWithExecutor(exec *Executor, log zerolog.Logger) *Client {
	return &Client{
		exec: exec,
		log:  log.With().Str("client", "comdirect").Logger(),
	}
}

var _ domain.BankingClient = (*Client)(nil)

// GetAccountBalances lists the balances of all accounts of a user.
func (c *Client) GetAccountBalances(ctx context.Context, userID string, q domain.BalanceQuery, headers domain.Headers) (*domain.ListResourceAccountBalance, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("banking/clients/%s/v2/accounts/balances", url.PathEscape(userID)), map[string]any{
		"without-attr": q.WithoutAttr,
	}, headers)
	if err != nil {
		return nil, err
	}

	list, err := domain.DecodeListResourceAccountBalance(raw)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = &domain.ListResourceAccountBalance{Values: []*domain.AccountBalance{}}
	}
	return list, nil
}

// GetAccountTransactions lists the transactions of one account.
func (c *Client) GetAccountTransactions(ctx context.Context, accountID string, q domain.TransactionQuery, headers domain.Headers) (*domain.ListResourceAccountTransaction, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("banking/v1/accounts/%s/transactions", url.PathEscape(accountID)), map[string]any{
		"transactionState":     q.TransactionState,
		"transactionDirection": q.TransactionDirection,
		"paging-first":         q.PagingFirst,
		"with-attr":            q.WithAttr,
	}, headers)
	if err != nil {
		return nil, err
	}

	list, err := domain.DecodeListResourceAccountTransaction(raw)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = &domain.ListResourceAccountTransaction{Values: []*domain.AccountTransaction{}}
	}
	return list, nil
}

// GetSessions lists the login sessions of a user.
func (c *Client) GetSessions(ctx context.Context, userID string, headers domain.Headers) ([]*domain.Session, error) {
	raw, err := c.getJSON(ctx, fmt.Sprintf("session/clients/%s/v1/sessions", url.PathEscape(userID)), nil, headers)
	if err != nil {
		return nil, err
	}
	return domain.DecodeSessions(raw)
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]any, headers domain.Headers) (any, error) {
	outcome, err := c.exec.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path,
		Params:  params,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}

	raw, err := outcome.JSON()
	if err != nil {
		return nil, &domain.DecodeError{Target: "JSON", Value: string(outcome.Body), Err: err}
	}
	return raw, nil
}

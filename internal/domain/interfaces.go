package domain

import "context"

// Forwarded upstream header names. The REST layer copies them from the
// incoming request verbatim; background jobs read them from configuration.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestInfo   = "x-http-request-info"
	HeaderSessionInfo   = "x-http-session-info"
)

// ForwardedHeaderNames lists the headers passed through to the bank API.
var ForwardedHeaderNames = []string{HeaderAuthorization, HeaderRequestInfo, HeaderSessionInfo}

// Headers is a set of opaque upstream headers (bearer token and session info).
type Headers map[string]string

// BalanceQuery holds the optional filters of the balances endpoint.
type BalanceQuery struct {
	WithoutAttr *string
}

// TransactionQuery holds the optional filters of the transactions endpoint.
type TransactionQuery struct {
	TransactionState     *string
	TransactionDirection *string
	PagingFirst          *int
	WithAttr             *string
}

// BankingClient is the upstream banking API as seen by the services.
// This interface keeps the modules independent of the HTTP client package.
type BankingClient interface {
	GetAccountBalances(ctx context.Context, userID string, q BalanceQuery, headers Headers) (*ListResourceAccountBalance, error)
	GetAccountTransactions(ctx context.Context, accountID string, q TransactionQuery, headers Headers) (*ListResourceAccountTransaction, error)
	GetSessions(ctx context.Context, userID string, headers Headers) ([]*Session, error)
}

// EventPublisher receives notifications about cache refreshes and sync jobs.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

package testing

import (
	"context"
	"sync"

	"github.com/aristath/bankmirror/internal/domain"
)

// MockBankingClient is a scripted domain.BankingClient that counts calls.
type MockBankingClient struct {
	mu           sync.RWMutex
	balances     *domain.ListResourceAccountBalance
	transactions *domain.ListResourceAccountTransaction
	sessions     []*domain.Session
	err          error

	balanceCalls     int
	transactionCalls int
	sessionCalls     int
	lastHeaders      domain.Headers
}

// NewMockBankingClient creates a client that returns empty lists.
func NewMockBankingClient() *MockBankingClient {
	return &MockBankingClient{
		balances:     &domain.ListResourceAccountBalance{Values: []*domain.AccountBalance{}},
		transactions: &domain.ListResourceAccountTransaction{Values: []*domain.AccountTransaction{}},
	}
}

// SetBalances sets the balances to return
func (m *MockBankingClient) SetBalances(values ...*domain.AccountBalance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = &domain.ListResourceAccountBalance{Values: values}
}

// SetTransactions sets the transactions to return
func (m *MockBankingClient) SetTransactions(values ...*domain.AccountTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = &domain.ListResourceAccountTransaction{Values: values}
}

// SetSessions sets the sessions to return
func (m *MockBankingClient) SetSessions(values ...*domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = values
}

// SetError sets the error to return
func (m *MockBankingClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockBankingClient) GetAccountBalances(_ context.Context, _ string, _ domain.BalanceQuery, headers domain.Headers) (*domain.ListResourceAccountBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceCalls++
	m.lastHeaders = headers
	if m.err != nil {
		return nil, m.err
	}
	return m.balances, nil
}

func (m *MockBankingClient) GetAccountTransactions(_ context.Context, _ string, _ domain.TransactionQuery, headers domain.Headers) (*domain.ListResourceAccountTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactionCalls++
	m.lastHeaders = headers
	if m.err != nil {
		return nil, m.err
	}
	return m.transactions, nil
}

func (m *MockBankingClient) GetSessions(_ context.Context, _ string, headers domain.Headers) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionCalls++
	m.lastHeaders = headers
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

// BalanceCalls returns how many times balances were fetched.
func (m *MockBankingClient) BalanceCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceCalls
}

// TransactionCalls returns how many times transactions were fetched.
func (m *MockBankingClient) TransactionCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactionCalls
}

// SessionCalls returns how many times sessions were fetched.
func (m *MockBankingClient) SessionCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionCalls
}

// LastHeaders returns the headers of the most recent call.
func (m *MockBankingClient) LastHeaders() domain.Headers {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeaders
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *MockEventPublisher) Publish(eventType string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

// Events returns the published event types in order.
func (m *MockEventPublisher) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

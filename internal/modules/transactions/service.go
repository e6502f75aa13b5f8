package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// EventTransactionsRefreshed is published after a transaction refresh.
const EventTransactionsRefreshed = "TRANSACTIONS_REFRESHED"

// TransactionService fetches transactions upstream and maintains the cache.
type TransactionService struct {
	client domain.BankingClient
	repo   *Repository
	db     *database.DB
	events domain.EventPublisher
	log    zerolog.Logger
}

// NewTransactionService creates a new transaction service. events may be nil.
func NewTransactionService(client domain.BankingClient, repo *Repository, db *database.DB, events domain.EventPublisher, log zerolog.Logger) *TransactionService {
	return &TransactionService{
		client: client,
		repo:   repo,
		db:     db,
		events: events,
		log:    log.With().Str("service", "transactions").Logger(),
	}
}

// RefreshTransactions fetches an account's transactions and upserts them atomically.
func (s *TransactionService) RefreshTransactions(ctx context.Context, accountID string, q domain.TransactionQuery, headers domain.Headers) (*domain.ListResourceAccountTransaction, error) {
	list, err := s.client.GetAccountTransactions(ctx, accountID, q, headers)
	if err != nil {
		return nil, err
	}

	var stats UpsertStats
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var upsertErr error
		stats, upsertErr = s.repo.UpsertTransactions(ctx, tx, list.Values, accountID)
		return upsertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cache transactions: %w", err)
	}

	s.log.Info().
		Str("account_id", accountID).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Msg("Transactions refreshed")

	if s.events != nil {
		s.events.Publish(EventTransactionsRefreshed, map[string]any{
			"account_id": accountID,
			"inserted":   stats.Inserted,
			"updated":    stats.Updated,
		})
	}
	return list, nil
}

// ListCachedTransactions decodes the cached payloads of an account.
func (s *TransactionService) ListCachedTransactions(ctx context.Context, accountID string) ([]*domain.AccountTransaction, error) {
	rows, err := s.repo.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.AccountTransaction, 0, len(rows))
	for _, row := range rows {
		raw, err := domain.ParseJSON([]byte(row.Raw))
		if err != nil {
			return nil, fmt.Errorf("corrupt cached transaction %s: %w", row.ExternalID, err)
		}
		t, err := domain.DecodeAccountTransaction(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTransactions returns cached transactions, refreshing when forced or when
// nothing is cached for the account. refreshed reports an upstream call.
func (s *TransactionService) GetTransactions(ctx context.Context, accountID string, force bool, q domain.TransactionQuery, headers domain.Headers) ([]*domain.AccountTransaction, bool, error) {
	if !force {
		cached, err := s.ListCachedTransactions(ctx, accountID)
		if err != nil {
			return nil, false, err
		}
		if len(cached) > 0 {
			return cached, false, nil
		}
	}

	list, err := s.RefreshTransactions(ctx, accountID, q, headers)
	if err != nil {
		return nil, false, err
	}
	return list.Values, true, nil
}

package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// Event types published after a balance refresh.
const EventBalancesRefreshed = "BALANCES_REFRESHED"

// AccountService fetches balances upstream and keeps the position cache.
type AccountService struct {
	client domain.BankingClient
	repo   *PositionRepository
	db     *database.DB
	events domain.EventPublisher
	log    zerolog.Logger
}

// NewAccountService creates a new account service. events may be nil.
func NewAccountService(client domain.BankingClient, repo *PositionRepository, db *database.DB, events domain.EventPublisher, log zerolog.Logger) *AccountService {
	return &AccountService{
		client: client,
		repo:   repo,
		db:     db,
		events: events,
		log:    log.With().Str("service", "accounts").Logger(),
	}
}

// RefreshAccountBalances fetches balances and upserts them in one transaction.
func (s *AccountService) RefreshAccountBalances(ctx context.Context, userID string, q domain.BalanceQuery, headers domain.Headers) (*domain.ListResourceAccountBalance, error) {
	list, err := s.client.GetAccountBalances(ctx, userID, q, headers)
	if err != nil {
		return nil, err
	}

	var stats UpsertStats
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var upsertErr error
		stats, upsertErr = s.repo.UpsertBalances(ctx, tx, list.Values, userID)
		return upsertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cache balances: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Msg("Balances refreshed")

	if s.events != nil {
		s.events.Publish(EventBalancesRefreshed, map[string]any{
			"user_id":  userID,
			"accounts": stats.Inserted + stats.Updated,
		})
	}
	return list, nil
}

// ListCachedBalances decodes the cached payloads of a user's positions.
func (s *AccountService) ListCachedBalances(ctx context.Context, userID string) ([]*domain.AccountBalance, error) {
	positions, err := s.repo.ListPositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.AccountBalance, 0, len(positions))
	for _, pos := range positions {
		if pos.Raw == "" {
			continue
		}
		raw, err := domain.ParseJSON([]byte(pos.Raw))
		if err != nil {
			return nil, fmt.Errorf("corrupt cached balance %s: %w", pos.AccountID, err)
		}
		balance, err := domain.DecodeAccountBalance(raw)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

// GetBalances returns cached balances, refreshing when forced or when the
// cache is empty. refreshed reports whether the upstream API was called.
func (s *AccountService) GetBalances(ctx context.Context, userID string, force bool, q domain.BalanceQuery, headers domain.Headers) ([]*domain.AccountBalance, bool, error) {
	if !force {
		cached, err := s.ListCachedBalances(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		if len(cached) > 0 {
			return cached, false, nil
		}
	}

	list, err := s.RefreshAccountBalances(ctx, userID, q, headers)
	if err != nil {
		return nil, false, err
	}
	return list.Values, true, nil
}

// GetBalanceSummary fetches balances live and maps them to summaries.
func (s *AccountService) GetBalanceSummary(ctx context.Context, userID string, q domain.BalanceQuery, headers domain.Headers) ([]BalanceSummary, error) {
	list, err := s.client.GetAccountBalances(ctx, userID, q, headers)
	if err != nil {
		return nil, err
	}
	return Summarize(list.Values), nil
}

// GetSessions passes the upstream session list through uncached.
func (s *AccountService) GetSessions(ctx context.Context, userID string, headers domain.Headers) ([]*domain.Session, error) {
	return s.client.GetSessions(ctx, userID, headers)
}

// Summarize maps balances to their account id, primary amount and currency.
func Summarize(balances []*domain.AccountBalance) []BalanceSummary {
	out := make([]BalanceSummary, 0, len(balances))
	for _, b := range balances {
		if b == nil {
			continue
		}
		summary := BalanceSummary{AccountID: b.ResolvedAccountID()}
		amount, currency := b.PrimaryAmount()
		if amount != nil {
			v := domain.FormatDecimal(*amount)
			summary.Amount = &v
		}
		if currency != "" {
			summary.Currency = &currency
		}
		out = append(out, summary)
	}
	return out
}

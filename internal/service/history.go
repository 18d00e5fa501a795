package service

import (
	"context"
	"fmt"

	"github.com/companionai/counsel/internal/domain"
)

// GetMessages retrieves messages for a session.
func (s *Service) GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	messages, err := s.store.GetMessages(ctx, sessionID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// ListTransactions lists stored turn transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, sessionID string, limit int) ([]domain.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// GetTransactionEvents retrieves the per-step audit trail of a transaction.
func (s *Service) GetTransactionEvents(ctx context.Context, transactionID string, afterTs int64, limit int) ([]domain.Event, error) {
	events, err := s.store.GetEvents(ctx, transactionID, afterTs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

// Stats aggregates stored transactions.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// Package store provides persistence for sessions, messages, transactions
// and audit events.
package store

import (
	"context"

	"github.com/companionai/counsel/internal/domain"
)

// Store is the persistence interface used by the service layer.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetOrCreateSession(ctx context.Context, sessionID, userID string) (*domain.Session, error)

	// Messages
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error)

	// Transactions (persisted workflow records)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, sessionID string, limit int) ([]domain.Transaction, error)

	// Events (per-step audit trail)
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, transactionID string, afterTs int64, limit int) ([]domain.Event, error)

	// Stats aggregates stored transactions.
	Stats(ctx context.Context) (*domain.Stats, error)

	Close() error
}

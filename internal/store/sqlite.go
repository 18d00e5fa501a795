package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/companionai/counsel/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			transaction_id TEXT,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			bot_response TEXT NOT NULL,
			specialist TEXT,
			approved INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			record TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_session ON transactions(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (transaction_id) REFERENCES transactions(transaction_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_transaction ON events(transaction_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	metadata, _ := json.Marshal(session.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, created_at, metadata) VALUES (?, ?, ?, ?)`,
		session.SessionID, session.UserID, session.CreatedAt, string(metadata))
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, created_at, metadata FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.CreatedAt, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if metadata.Valid {
		session.Metadata = json.RawMessage(metadata.String)
	}
	return &session, nil
}

// GetOrCreateSession gets an existing session or creates a new one.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &domain.Session{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CreateMessage creates a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	metadata, _ := json.Marshal(message.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, transaction_id, role, content, created_at, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.TransactionID, message.Role, message.Content, message.CreatedAt, string(metadata))
	return err
}

// GetMessages retrieves messages for a session in chronological order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, transaction_id, role, content, created_at, metadata FROM messages WHERE session_id = ?`
	args := []interface{}{sessionID}

	// The cursor resolves to the referenced message's timestamp; message IDs
	// are random and carry no ordering.
	if before != "" {
		query += ` AND created_at < (SELECT created_at FROM messages WHERE message_id = ?)`
		args = append(args, before)
	}

	query += ` ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var transactionID, metadata sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &transactionID, &msg.Role, &msg.Content, &msg.CreatedAt, &metadata); err != nil {
			return nil, err
		}
		if transactionID.Valid {
			msg.TransactionID = transactionID.String
		}
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateTransaction persists one completed workflow transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	record := ""
	if tx.Record != nil {
		record = string(tx.Record)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (transaction_id, session_id, user_message, bot_response, specialist, approved, outcome, created_at, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.TransactionID, tx.SessionID, tx.UserMessage, tx.BotResponse, string(tx.Specialist), tx.Approved, string(tx.Outcome), tx.CreatedAt, record)
	return err
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	var specialist, outcome string
	var record sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT transaction_id, session_id, user_message, bot_response, specialist, approved, outcome, created_at, record
		 FROM transactions WHERE transaction_id = ?`,
		transactionID).Scan(&tx.TransactionID, &tx.SessionID, &tx.UserMessage, &tx.BotResponse, &specialist, &tx.Approved, &outcome, &tx.CreatedAt, &record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tx.Specialist = domain.SpecialistKind(specialist)
	tx.Outcome = domain.Outcome(outcome)
	if record.Valid && record.String != "" {
		tx.Record = json.RawMessage(record.String)
	}
	return &tx, nil
}

// ListTransactions lists stored transactions, newest first. sessionID is
// optional; empty lists across all sessions.
func (s *SQLiteStore) ListTransactions(ctx context.Context, sessionID string, limit int) ([]domain.Transaction, error) {
	query := `SELECT transaction_id, session_id, user_message, bot_response, specialist, approved, outcome, created_at, record FROM transactions`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var specialist, outcome string
		var record sql.NullString
		if err := rows.Scan(&tx.TransactionID, &tx.SessionID, &tx.UserMessage, &tx.BotResponse, &specialist, &tx.Approved, &outcome, &tx.CreatedAt, &record); err != nil {
			return nil, err
		}
		tx.Specialist = domain.SpecialistKind(specialist)
		tx.Outcome = domain.Outcome(outcome)
		if record.Valid && record.String != "" {
			tx.Record = json.RawMessage(record.String)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CreateEvent creates a new audit event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, transaction_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.TransactionID, event.Ts, event.Type, payload)
	return err
}

// GetEvents retrieves audit events for a transaction in timestamp order.
func (s *SQLiteStore) GetEvents(ctx context.Context, transactionID string, afterTs int64, limit int) ([]domain.Event, error) {
	query := `SELECT event_id, transaction_id, ts, type, payload FROM events WHERE transaction_id = ?`
	args := []interface{}{transactionID}

	if afterTs > 0 {
		query += ` AND ts > ?`
		args = append(args, afterTs)
	}

	query += ` ORDER BY ts ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.TransactionID, &event.Ts, &event.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Stats aggregates stored transactions.
func (s *SQLiteStore) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{BySpecialist: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN approved = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'blocked' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'needs_revision' THEN 1 ELSE 0 END), 0)
		FROM transactions`).
		Scan(&stats.TotalTurns, &stats.Approved, &stats.Blocked, &stats.NeedsRevision)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT specialist, COUNT(*) FROM transactions WHERE specialist != '' GROUP BY specialist`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var specialist string
		var count int
		if err := rows.Scan(&specialist, &count); err != nil {
			return nil, err
		}
		stats.BySpecialist[specialist] = count
	}
	return stats, rows.Err()
}

package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"voucherchain/core/events"
	"voucherchain/crypto"
)

const (
	// DefaultLimit is applied when a filter does not bound the page size.
	DefaultLimit = 100
	// MaxLimit caps the page size of a single listing.
	MaxLimit = 1000
)

// Record is one committed contract event.
type Record struct {
	ID         int64             `json:"id"`
	TxID       string            `json:"txId"`
	Ledger     uint64            `json:"ledger"`
	Contract   string            `json:"contract"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Type     string
	Contract string
	// AfterID resumes a listing after the last record already seen.
	AfterID int64
	Limit   int
}

// Store appends committed events into SQLite and serves them back.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the event index at path. An empty path keeps the
// index in memory.
func Open(path string) (*Store, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps in-memory databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, logger: slog.Default(), now: func() time.Time { return time.Now().UTC() }}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tx_id TEXT NOT NULL,
            ledger INTEGER NOT NULL,
            contract TEXT NOT NULL,
            type TEXT NOT NULL,
            attributes TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS events_type ON events(type, id);`,
		`CREATE INDEX IF NOT EXISTS events_contract ON events(contract, id);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("indexer schema: %w", err)
		}
	}
	return nil
}

// SetLogger overrides the logger used to report failed appends.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Emit implements events.Emitter. Failures are logged; the host has already
// committed the transaction.
func (s *Store) Emit(e events.Event) {
	if e == nil {
		return
	}
	env, ok := e.(events.Envelope)
	if !ok {
		env = events.Envelope{Payload: e}
	}
	if _, err := s.Append(context.Background(), env); err != nil {
		s.logger.Error("index event", "type", env.EventType(), "txId", env.TxID, "error", err)
	}
}

// Append stores one envelope and returns its row id.
func (s *Store) Append(ctx context.Context, env events.Envelope) (int64, error) {
	rendered := env.Event()
	attrs := make(map[string]string, len(rendered.Attributes))
	for k, v := range rendered.Attributes {
		switch k {
		case "contract", "txId", "ledger":
			continue
		}
		attrs[k] = v
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return 0, err
	}
	contract := ""
	if !crypto.IsZero(env.Contract) {
		contract = crypto.FormatAccount(env.Contract)
	}
	const stmt = `INSERT INTO events(tx_id, ledger, contract, type, attributes, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, stmt, env.TxID, int64(env.Ledger), contract, rendered.Type, string(payload), s.now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns matching events in commit order.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if t := strings.TrimSpace(filter.Type); t != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, t)
	}
	if c := strings.TrimSpace(filter.Contract); c != "" {
		account, err := crypto.ParseAccount(c)
		if err != nil {
			return nil, fmt.Errorf("contract filter: %w", err)
		}
		clauses = append(clauses, "contract = ?")
		args = append(args, crypto.FormatAccount(account))
	}
	if filter.AfterID > 0 {
		clauses = append(clauses, "id > ?")
		args = append(args, filter.AfterID)
	}
	query := `SELECT id, tx_id, ledger, contract, type, attributes, created_at FROM events`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec    Record
			ledger int64
			attrs  string
		)
		if err := rows.Scan(&rec.ID, &rec.TxID, &ledger, &rec.Contract, &rec.Type, &attrs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Ledger = uint64(ledger)
		if err := json.Unmarshal([]byte(attrs), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("event %d attributes: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

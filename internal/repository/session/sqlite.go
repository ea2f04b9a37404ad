package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/cart"
	"github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

// SQLiteStore persists sessions in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		persona TEXT NOT NULL,
		cart_json TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated ON chat_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, kind, persona, cart_json, messages_json, created_at, updated_at
		FROM chat_sessions WHERE id = ?`

	var (
		out                  session.Session
		kind, p              string
		cartJSON, msgsJSON   string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&out.ID, &kind, &p, &cartJSON, &msgsJSON, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	out.Kind = session.Kind(kind)
	out.Persona = persona.Persona(p)
	out.Cart = cart.New()
	if err := json.Unmarshal([]byte(cartJSON), out.Cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	var msgs []chat.Message
	if err := json.Unmarshal([]byte(msgsJSON), &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out.Messages = msgs
	out.CreatedAt = time.UnixMilli(createdAt)
	out.UpdatedAt = time.UnixMilli(updatedAt)

	return &out, nil
}

// Save inserts or replaces a session.
func (s *SQLiteStore) Save(ctx context.Context, sess *session.Session) error {
	c := sess.Cart
	if c == nil {
		c = cart.New()
	}
	cartJSON, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	msgs := sess.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	msgsJSON, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	query := `
	INSERT INTO chat_sessions (id, kind, persona, cart_json, messages_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		persona = excluded.persona,
		cart_json = excluded.cart_json,
		messages_json = excluded.messages_json,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		sess.ID, string(sess.Kind), string(sess.Persona),
		string(cartJSON), string(msgsJSON),
		sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes a session. Missing sessions are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes sessions not updated within ttl.
func (s *SQLiteStore) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

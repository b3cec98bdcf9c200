// Package session implements the gateway's conversation/session store: an
// append-only Message log, keyed by (user_id, session_id), persisted
// durably so a session survives process restarts.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrSessionNotFound is returned by Get when no session matches.
var ErrSessionNotFound = errors.New("session not found")

const maxTitleLength = 60

// Attachment is a non-text payload carried by a Message (e.g. an uploaded
// image for pest detection).
type Attachment struct {
	Kind string `json:"kind"`
	URI  string `json:"uri,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// MessageMetadata carries the per-message bookkeeping the Formatter and
// router attach: which tools produced it, how confident the answer was,
// how long it took, and translation provenance.
type MessageMetadata struct {
	ToolsUsed      []string `json:"tools_used,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	ExecutionMS    int64    `json:"execution_ms,omitempty"`
	TranslatedFrom string   `json:"translated_from,omitempty"`
	TranslatedTo   string   `json:"translated_to,omitempty"`
}

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a conversation.
type Message struct {
	ID          string          `json:"id"`
	Role        Role            `json:"role"`
	Text        string          `json:"text"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Metadata    MessageMetadata `json:"metadata"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Session is a full conversation: append-only except for whole-session
// deletion. session_id is unique within the process namespace; user_id
// scopes all reads and writes.
type Session struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	MessageCount  int       `json:"message_count"`
}

// Summary is a Session without its message list, used by List.
type Summary struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	MessageCount  int       `json:"message_count"`
}

// Store is the durable, append-only session log. All methods are scoped by
// user_id: a user can never read or write another user's sessions.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the session tables at dsn.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
	session_id      TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	title           TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL,
	last_updated_at TIMESTAMP NOT NULL,
	message_count   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (session_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);
`)
	if err != nil {
		return fmt.Errorf("failed to migrate session store: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append creates the session if absent (deriving title from the first user
// message), otherwise appends msg and bumps last_updated_at/message_count.
// Idempotent on (session_id, msg.ID): re-appending the same message id is a
// no-op.
func (s *Store) Append(userID, sessionID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT 1 FROM sessions WHERE session_id = ? AND user_id = ?`, sessionID, userID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		title := deriveTitle(msg)
		if _, err := tx.Exec(
			`INSERT INTO sessions (session_id, user_id, title, created_at, last_updated_at, message_count) VALUES (?, ?, ?, ?, ?, 0)`,
			sessionID, userID, title, msg.Timestamp, msg.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check session existence: %w", err)
	}

	var dup bool
	err = tx.QueryRow(`SELECT 1 FROM messages WHERE session_id = ? AND message_id = ?`, sessionID, msg.ID).Scan(&dup)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check message dedup: %w", err)
	}
	if err == nil {
		return tx.Commit()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	var seq int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO messages (session_id, message_id, seq, payload) VALUES (?, ?, ?, ?)`,
		sessionID, msg.ID, seq, string(payload),
	); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE sessions SET last_updated_at = ?, message_count = message_count + 1 WHERE session_id = ? AND user_id = ?`,
		msg.Timestamp, sessionID, userID,
	); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return tx.Commit()
}

// deriveTitle derives a session title from the first message's text,
// trimmed to maxTitleLength at the nearest preceding word boundary
// rather than mid-word.
func deriveTitle(msg Message) string {
	title := strings.TrimSpace(msg.Text)
	if len(title) > maxTitleLength {
		cut := strings.LastIndexByte(title[:maxTitleLength], ' ')
		if cut <= 0 {
			cut = maxTitleLength
		}
		title = strings.TrimSpace(title[:cut])
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}

// Get returns the full session (with messages) for (userID, sessionID).
// Returns ErrSessionNotFound if absent or owned by another user.
func (s *Store) Get(userID, sessionID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, user_id, title, created_at, last_updated_at, message_count
		 FROM sessions WHERE session_id = ? AND user_id = ?`,
		sessionID, userID,
	)

	var sess Session
	err := row.Scan(&sess.SessionID, &sess.UserID, &sess.Title, &sess.CreatedAt, &sess.LastUpdatedAt, &sess.MessageCount)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.Query(`SELECT payload FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		var msg Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		sess.Messages = append(sess.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &sess, nil
}

// List returns the user's sessions as Summaries, most-recently-updated
// first, limited to at most limit entries (0 means no limit).
func (s *Store) List(userID string, limit int) ([]Summary, error) {
	query := `SELECT session_id, user_id, title, created_at, last_updated_at, message_count
	          FROM sessions WHERE user_id = ? ORDER BY last_updated_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.SessionID, &sum.UserID, &sum.Title, &sum.CreatedAt, &sum.LastUpdatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session and all its messages, returning whether
// anything was removed.
func (s *Store) Delete(userID, sessionID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return false, fmt.Errorf("failed to delete messages: %w", err)
	}
	return true, nil
}

// NewMessageID generates a new unique message id.
func NewMessageID() string {
	return uuid.NewString()
}

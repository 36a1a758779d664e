// Package store provides SQLite persistence for session state.
//
// It is the local stand-in for the taskpane's persistence host: one
// versioned JSON blob per user identity, plus a turn log for diagnostics.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moldu/assistant/internal/session"
	"github.com/moldu/assistant/internal/types"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for session persistence.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a session database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// GenID generates a random 16-character hex ID.
func GenID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// DiscoverDB finds the session database by walking up from cwd.
// Returns the path to .moldu/assistant.db or empty string if not found.
func DiscoverDB() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".moldu", "assistant.db")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// DefaultDBPath returns the conventional database location under the home
// directory, used when discovery finds nothing.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".moldu", "assistant.db")
	}
	return filepath.Join(home, ".moldu", "assistant.db")
}

// SaveSession upserts the versioned session blob for a user.
func (d *DB) SaveSession(userID string, blob session.Blob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal session blob: %w", err)
	}
	_, err = d.conn.Exec(`
		INSERT INTO sessions (user_id, version, blob, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			version = excluded.version,
			blob = excluded.blob,
			updated_at = excluded.updated_at`,
		userID, blob.Version, string(data), Now(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored blob for a user, or nil if none exists.
func (d *DB) LoadSession(userID string) (*session.Blob, error) {
	var data string
	err := d.conn.QueryRow(
		"SELECT blob FROM sessions WHERE user_id = ?", userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var blob session.Blob
	if err := json.Unmarshal([]byte(data), &blob); err != nil {
		return nil, fmt.Errorf("parse session blob: %w", err)
	}
	return &blob, nil
}

// DeleteSession removes the stored blob for a user.
func (d *DB) DeleteSession(userID string) error {
	_, err := d.conn.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// TurnRecord is one logged turn.
type TurnRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	ThreadID  string         `json:"thread_id"`
	TurnKind  types.TurnKind `json:"turn_kind"`
	Scope     types.Scope    `json:"scope,omitempty"`
	Message   string         `json:"message"`
	Answer    string         `json:"answer,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// LogTurn appends one turn to the diagnostic log.
func (d *DB) LogTurn(r *TurnRecord) error {
	if !types.IsValidTurnKind(r.TurnKind) {
		return fmt.Errorf("invalid turn kind %q", r.TurnKind)
	}
	if r.ID == "" {
		r.ID = GenID()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO turn_log (id, user_id, thread_id, turn_kind, scope, message, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ThreadID, string(r.TurnKind), string(r.Scope),
		r.Message, r.Answer, r.CreatedAt,
	)
	return err
}

// RecentTurns returns the latest turns for a user, newest first.
func (d *DB) RecentTurns(userID string, limit int) ([]*TurnRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
		SELECT id, user_id, thread_id, turn_kind, scope, message, answer, created_at
		FROM turn_log
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*TurnRecord
	for rows.Next() {
		r := &TurnRecord{}
		var scope, answer sql.NullString
		var kind string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ThreadID, &kind, &scope, &r.Message, &answer, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.TurnKind = types.TurnKind(kind)
		r.Scope = types.Scope(scope.String)
		r.Answer = answer.String
		result = append(result, r)
	}
	return result, rows.Err()
}

package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/tailored-agentic-units/react/core/protocol"
)

const (
	driverSQLite = "sqlite"
	driverMySQL  = "mysql"
)

var schemas = map[string]string{
	driverSQLite: `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_key TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	driverMySQL: `CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		session_key VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		content MEDIUMTEXT NOT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_messages_session (session_key, id)
	)`,
}

var indexes = map[string][]string{
	driverSQLite: {
		"CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_key, id)",
	},
}

// SQLStore keeps every message as a row in a messages table. Row ids order
// each key's log.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path using
// the pure-Go driver. ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open(driverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite permits one writer; a single connection also keeps a :memory:
	// database alive for the store's lifetime.
	db.SetMaxOpenConns(1)

	return newSQLStore(db, driverSQLite)
}

// NewMySQLStore connects to MySQL using dsn and ensures the schema exists.
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open(driverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	return newSQLStore(db, driverMySQL)
}

func newSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	if _, err := s.db.Exec(schemas[s.driver]); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	for _, idx := range indexes[s.driver] {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, key string, messages ...protocol.Message) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_key, role, content, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for _, msg := range messages {
		if _, err := stmt.ExecContext(ctx, key, string(msg.Role), msg.Content, now); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]protocol.Message, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_key = ? ORDER BY id", key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	defer rows.Close()

	messages := []protocol.Message{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
		messages = append(messages, protocol.NewMessage(protocol.Role(role), content))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	return messages, nil
}

func (s *SQLStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT session_key FROM messages ORDER BY session_key")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return keys, nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_key = ?", key); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDeleteFailed, key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS agents (
		user_id INTEGER PRIMARY KEY,
		role TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS languages (
		user_id INTEGER PRIMARY KEY,
		language TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		"rules", DefaultRules, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}
	return nil
}

// withRetry runs op, retrying SQLITE_BUSY and lock errors with exponential
// backoff: 100ms, 200ms.
func (s *SQLiteStore) withRetry(ctx context.Context, name string, op func() error) error {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil || !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("SQLite busy, retrying", "operation", name, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListAgents returns every staff record ordered by user id.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, role FROM agents ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close agent rows", "error", closeErr)
		}
	}()

	var agents []domain.Agent
	for rows.Next() {
		var (
			id   int64
			role string
		)
		if err := rows.Scan(&id, &role); err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		r, ok := domain.ParseRole(role)
		if !ok {
			slog.Warn("Skipping agent with unknown role", "user_id", id, "role", role)
			continue
		}
		agents = append(agents, domain.Agent{UserID: id, Role: r})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// GetAgent returns the staff record for a user, or nil.
func (s *SQLiteStore) GetAgent(ctx context.Context, userID int64) (*domain.Agent, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM agents WHERE user_id = ?`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("agent %d has unknown role %q", userID, role)
	}
	return &domain.Agent{UserID: userID, Role: r}, nil
}

// AddAgent persists a new staff record.
func (s *SQLiteStore) AddAgent(ctx context.Context, agent domain.Agent) error {
	err := s.withRetry(ctx, "add_agent", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO agents (user_id, role, created_at) VALUES (?, ?, ?)`,
			agent.UserID, agent.Role.String(), time.Now().Unix(),
		)
		return err
	})
	if shared.IsSQLiteConstraintError(err) {
		return ErrAgentExists
	}
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// RemoveAgent deletes a staff record.
func (s *SQLiteStore) RemoveAgent(ctx context.Context, userID int64) error {
	var affected int64
	err := s.withRetry(ctx, "remove_agent", func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Language returns the stored language preference.
func (s *SQLiteStore) Language(ctx context.Context, userID int64) (domain.Language, bool, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT language FROM languages WHERE user_id = ?`, userID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Language{}, false, nil
	}
	if err != nil {
		return domain.Language{}, false, fmt.Errorf("scan language: %w", err)
	}
	lang, ok := domain.ParseLanguage(code)
	if !ok {
		return domain.Language{}, false, nil
	}
	return lang, true, nil
}

// SetLanguage stores a language preference.
func (s *SQLiteStore) SetLanguage(ctx context.Context, userID int64, lang domain.Language) error {
	err := s.withRetry(ctx, "set_language", func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO languages (user_id, language, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				language = excluded.language,
				updated_at = excluded.updated_at`,
			userID, lang.String(), time.Now().Unix(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert language: %w", err)
	}
	return nil
}

// RememberUser records a user unless already known.
func (s *SQLiteStore) RememberUser(ctx context.Context, userID int64, lang domain.Language) error {
	err := s.withRetry(ctx, "remember_user", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO languages (user_id, language, updated_at) VALUES (?, ?, ?) ON CONFLICT(user_id) DO NOTHING`,
			userID, lang.String(), time.Now().Unix(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("remember user: %w", err)
	}
	return nil
}

// KnownUsers lists every user with a stored language preference.
func (s *SQLiteStore) KnownUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM languages ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query known users: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close known user rows", "error", closeErr)
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan known user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known users: %w", err)
	}
	return ids, nil
}

// Rules returns the raw rules document.
func (s *SQLiteStore) Rules(ctx context.Context) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, "rules").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultRules, nil
	}
	if err != nil {
		return "", fmt.Errorf("scan rules: %w", err)
	}
	return body, nil
}

// SetRules replaces the rules document.
func (s *SQLiteStore) SetRules(ctx context.Context, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		"rules", body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert rules: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

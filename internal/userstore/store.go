// Package userstore persists player identities and win/loss statistics in a
// local SQLite database.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	wins INTEGER NOT NULL DEFAULT 0,
	games_played INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const sqliteTimeFormat = "2006-01-02 15:04:05"

// MaxUsernameLen bounds usernames after whitespace trimming.
const MaxUsernameLen = 20

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must be 1-20 characters")
)

// User is a persisted player record.
type User struct {
	ID          string
	Username    string
	Wins        int
	GamesPlayed int
	CreatedAt   time.Time
	LastSeen    time.Time
}

// Entry is one leaderboard row.
type Entry struct {
	Username    string `json:"username"`
	Wins        int    `json:"wins"`
	GamesPlayed int    `json:"games_played"`
}

// ValidateUsername checks the trimmed name against length bounds and returns
// the trimmed form.
func ValidateUsername(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 || len(trimmed) > MaxUsernameLen {
		return "", ErrInvalidUsername
	}
	return trimmed, nil
}

// Store is a SQLite-backed user repository.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the database at dbPath and ensures the
// schema exists.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(createUsersTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating users table: %w", err)
	}

	return &Store{db: db, logger: logger.WithPrefix("userstore")}, nil
}

// Register returns the user record for username, creating it on first sight
// and refreshing last_seen either way. The username is validated and trimmed.
func (s *Store) Register(ctx context.Context, username string) (*User, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(sqliteTimeFormat)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET last_seen = ?`,
		uuid.NewString(), name, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	return s.userByColumn(ctx, "username", name)
}

// UserByID looks up a user by primary key.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.userByColumn(ctx, "id", id)
}

func (s *Store) userByColumn(ctx context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, wins, games_played, created_at, last_seen
		FROM users WHERE %s = ?`, column)

	var u User
	var createdAt, lastSeen string
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.Username, &u.Wins, &u.GamesPlayed, &createdAt, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if u.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if u.LastSeen, err = parseSQLiteTime(lastSeen); err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordResult books a finished game: every participant gets a game played
// and the winner gets a win. Runs in a single transaction.
func (s *Store) RecordResult(ctx context.Context, winnerID string, playerIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range playerIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET games_played = games_played + 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("recording game for %s: %w", id, err)
		}
	}
	if winnerID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET wins = wins + 1 WHERE id = ?`, winnerID); err != nil {
			return fmt.Errorf("recording win for %s: %w", winnerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing result: %w", err)
	}

	s.logger.Debug("result recorded", "winner", winnerID, "players", len(playerIDs))
	return nil
}

// Leaderboard returns the top 20 players by wins. Players who never finished
// a game are excluded. Ties break by fewer games played, then by name.
func (s *Store) Leaderboard(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, wins, games_played
		FROM users
		WHERE games_played > 0
		ORDER BY wins DESC, games_played ASC, username ASC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Wins, &e.GamesPlayed); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leaderboard rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SQLite may hand back timestamps in a few shapes depending on how the row
// was written.
func parseSQLiteTime(value string) (time.Time, error) {
	formats := []string{
		sqliteTimeFormat,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	}
	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, lastErr)
}

// Package store persists only what the admin surface needs: operator
// accounts and a turn activity log. The game world itself is in-memory
// only and does not survive restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"farmio/internal/model"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS turn_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_name TEXT NOT NULL,
		turn INTEGER NOT NULL,
		actions INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_turn_logs_game ON turn_logs(game_name, turn DESC);
	`
	_, err := s.db.Exec(ddl)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============ User CRUD (admin auth) ============

func (s *Store) CreateUser(u *model.User) error {
	now := time.Now()
	u.CreatedAt = now
	res, err := s.db.Exec(`INSERT INTO users (username, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, boolToInt(u.IsAdmin), now)
	if err != nil {
		return err
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetUserByID(id int64) (*model.User, error) {
	var u model.User
	var isAdmin int
	err := s.db.QueryRow(`SELECT id, username, password_hash, is_admin, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &isAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin == 1
	return &u, nil
}

func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	var u model.User
	var isAdmin int
	err := s.db.QueryRow(`SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &isAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin == 1
	return &u, nil
}

func (s *Store) UserExists(username string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) HasAnyUser() (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ============ Turn log ============

func (s *Store) AddTurnLog(entry *model.TurnLog) error {
	entry.CreatedAt = time.Now()
	res, err := s.db.Exec(`INSERT INTO turn_logs (game_name, turn, actions, created_at) VALUES (?, ?, ?, ?)`,
		entry.GameName, entry.Turn, entry.Actions, entry.CreatedAt)
	if err != nil {
		return err
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetTurnLogs(gameName string, limit int) ([]model.TurnLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id, game_name, turn, actions, created_at FROM turn_logs
		WHERE game_name = ? ORDER BY turn DESC LIMIT ?`, gameName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.TurnLog
	for rows.Next() {
		var l model.TurnLog
		if err := rows.Scan(&l.ID, &l.GameName, &l.Turn, &l.Actions, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Store) CleanOldTurnLogs(days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)
	_, err := s.db.Exec(`DELETE FROM turn_logs WHERE created_at < ?`, cutoff)
	return err
}

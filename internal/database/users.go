package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// CreateUser inserts a new user row. The unique constraint on username is
// the atomicity guarantee: of two concurrent inserts with the same name,
// exactly one succeeds and the other returns ErrUsernameTaken.
func (s *Store) CreateUser(username, passwordHash string) (*User, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.db.QueryRow(
			"INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id",
			username, passwordHash,
		).Scan(&id)
		if err != nil {
			return nil, translateInsertError(err)
		}
		return s.GetUserByID(id)
	}

	result, err := s.db.Exec(
		"INSERT INTO users (username, password) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		return nil, translateInsertError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(id)
}

// translateInsertError maps driver-specific unique-constraint violations to
// ErrUsernameTaken.
func translateInsertError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUsernameTaken
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrUsernameTaken
	}

	return err
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(id int64) (*User, error) {
	query := "SELECT id, username, password, created_at, last_login FROM users WHERE id = ?"
	if s.driver == "postgres" {
		query = "SELECT id, username, password, created_at, last_login FROM users WHERE id = $1"
	}
	return s.scanUser(s.db.QueryRow(query, id))
}

// GetUserByUsername retrieves a user by username. Lookups are case
// sensitive, matching the unique constraint.
func (s *Store) GetUserByUsername(username string) (*User, error) {
	query := "SELECT id, username, password, created_at, last_login FROM users WHERE username = ?"
	if s.driver == "postgres" {
		query = "SELECT id, username, password, created_at, last_login FROM users WHERE username = $1"
	}
	return s.scanUser(s.db.QueryRow(query, username))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var user User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return &user, nil
}

// UpdateLastLogin stamps the user's last_login with the current time.
// Concurrent logins for the same user are last-writer-wins.
func (s *Store) UpdateLastLogin(id int64) error {
	query := "UPDATE users SET last_login = ? WHERE id = ?"
	if s.driver == "postgres" {
		query = "UPDATE users SET last_login = $1 WHERE id = $2"
	}

	result, err := s.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

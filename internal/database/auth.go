package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"photo-gallery/internal/logging"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match an account.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateUser creates an account with the given password.
func (d *Database) CreateUser(ctx context.Context, username, password string, isAdmin bool) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := d.db.ExecContext(qCtx,
		"INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)",
		username, string(hash), boolInt(isAdmin),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// SetPassword replaces the password for an existing account.
func (d *Database) SetPassword(ctx context.Context, username, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_password", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := d.db.ExecContext(qCtx,
		"UPDATE users SET password_hash = ?, updated_at = strftime('%s','now') WHERE username = ?",
		string(hash), username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n == 0 {
		err = fmt.Errorf("no such user: %s", username)
		return err
	}
	return nil
}

// ValidateCredentials checks a username/password pair and returns the user
// when it matches.
func (d *Database) ValidateCredentials(ctx context.Context, username, password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("validate_credentials", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u User
	var hash string
	var isAdmin int
	var created int64
	err = d.db.QueryRowContext(qCtx,
		"SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &hash, &isAdmin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrInvalidCredentials
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		err = ErrInvalidCredentials
		return nil, err
	}

	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}

// CreateSession creates a session for the user and returns it.
func (d *Database) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_session", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expires := time.Now().Add(SessionDuration)

	res, err := d.db.ExecContext(qCtx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, token, expires.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	id, _ := res.LastInsertId()

	return &Session{ID: id, UserID: userID, Token: token, ExpiresAt: expires}, nil
}

// SessionUser resolves a session token to its user. Expired or unknown
// tokens return nil with no error; the request simply proceeds anonymous.
func (d *Database) SessionUser(ctx context.Context, token string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("session_user", start, err) }()

	if token == "" {
		return nil, nil
	}

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u User
	var isAdmin int
	var created int64
	err = d.db.QueryRowContext(qCtx, `
		SELECT u.id, u.username, u.is_admin, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > strftime('%s','now')`,
		token,
	).Scan(&u.ID, &u.Username, &isAdmin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}

// DeleteSession removes a session (logout).
func (d *Database) DeleteSession(ctx context.Context, token string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_session", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(qCtx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions removes expired sessions. Called periodically from
// main.
func (d *Database) CleanExpiredSessions(ctx context.Context) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clean_sessions", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(qCtx,
		"DELETE FROM sessions WHERE expires_at <= strftime('%s','now')")
	if err != nil {
		logging.Warn("failed to clean expired sessions: %v", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logging.Debug("cleaned %d expired sessions", n)
	}
}

// HasUsers reports whether any account exists yet.
func (d *Database) HasUsers(ctx context.Context) bool {
	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(qCtx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false
	}
	return count > 0
}

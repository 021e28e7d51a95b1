package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// testDB creates a fresh database in a temp directory.
func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewCreatesSchema(t *testing.T) {
	db := testDB(t)

	// A fresh database has no content and no users.
	stats := db.GetStats()
	if stats.Albums != 0 || stats.Photos != 0 {
		t.Errorf("GetStats() = %+v, want zeros", stats)
	}
	if db.HasUsers(context.Background()) {
		t.Error("HasUsers() = true on fresh database")
	}
}

func TestCreateUserAndValidate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.CreateUser(ctx, "alice", "s3cret", false)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if id == 0 {
		t.Error("CreateUser() returned id 0")
	}
	if !db.HasUsers(ctx) {
		t.Error("HasUsers() = false after CreateUser")
	}

	user, err := db.ValidateCredentials(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("ValidateCredentials() error = %v", err)
	}
	if user.Username != "alice" || user.IsAdmin {
		t.Errorf("user = %+v, want alice, non-admin", user)
	}

	if _, err := db.ValidateCredentials(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := db.ValidateCredentials(ctx, "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "alice", "pw", false); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := db.CreateUser(ctx, "alice", "pw2", false); err == nil {
		t.Error("duplicate CreateUser() succeeded, want error")
	}
}

func TestSetPassword(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "alice", "old", false); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := db.SetPassword(ctx, "alice", "new"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err := db.ValidateCredentials(ctx, "alice", "old"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still validates after SetPassword")
	}
	if _, err := db.ValidateCredentials(ctx, "alice", "new"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := db.SetPassword(ctx, "nobody", "pw"); err == nil {
		t.Error("SetPassword() for missing user succeeded, want error")
	}
}

func TestSessions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, "alice", "pw", true)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	session, err := db.CreateSession(ctx, userID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if len(session.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(session.Token))
	}
	if time.Until(session.ExpiresAt) < 6*24*time.Hour {
		t.Errorf("session expires at %v, want about a week out", session.ExpiresAt)
	}

	user, err := db.SessionUser(ctx, session.Token)
	if err != nil {
		t.Fatalf("SessionUser() error = %v", err)
	}
	if user == nil || user.ID != userID || !user.IsAdmin {
		t.Errorf("SessionUser() = %+v, want admin user %d", user, userID)
	}

	// Unknown and empty tokens resolve to anonymous, not to an error.
	if u, err := db.SessionUser(ctx, "deadbeef"); err != nil || u != nil {
		t.Errorf("SessionUser(unknown) = %v, %v, want nil, nil", u, err)
	}
	if u, err := db.SessionUser(ctx, ""); err != nil || u != nil {
		t.Errorf("SessionUser(empty) = %v, %v, want nil, nil", u, err)
	}

	if err := db.DeleteSession(ctx, session.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if u, _ := db.SessionUser(ctx, session.Token); u != nil {
		t.Error("session still resolves after DeleteSession")
	}
}

func TestCleanExpiredSessions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, "alice", "pw", false)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	session, err := db.CreateSession(ctx, userID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// Force the session into the past, then sweep.
	if _, err := db.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = 1 WHERE token = ?", session.Token); err != nil {
		t.Fatalf("failed to backdate session: %v", err)
	}
	db.CleanExpiredSessions(ctx)

	if u, _ := db.SessionUser(ctx, session.Token); u != nil {
		t.Error("expired session still resolves after cleanup")
	}
}

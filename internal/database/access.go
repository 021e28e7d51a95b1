package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetAlbumPolicy creates or replaces the access policy for an album.
func (d *Database) SetAlbumPolicy(ctx context.Context, albumID int64, public, inherit bool) error {
	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(qCtx, `
		INSERT INTO album_policies (album_id, public, inherit) VALUES (?, ?, ?)
		ON CONFLICT(album_id) DO UPDATE SET public = excluded.public, inherit = excluded.inherit`,
		albumID, boolInt(public), boolInt(inherit),
	)
	if err != nil {
		return fmt.Errorf("failed to set album policy: %w", err)
	}
	return nil
}

// SetPhotoPolicy creates or replaces the access policy for a single photo,
// overriding its album's policy.
func (d *Database) SetPhotoPolicy(ctx context.Context, photoID int64, public bool) error {
	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(qCtx, `
		INSERT INTO photo_policies (photo_id, public) VALUES (?, ?)
		ON CONFLICT(photo_id) DO UPDATE SET public = excluded.public`,
		photoID, boolInt(public),
	)
	if err != nil {
		return fmt.Errorf("failed to set photo policy: %w", err)
	}
	return nil
}

// AllowAlbumUser grants a user access to an album.
func (d *Database) AllowAlbumUser(ctx context.Context, albumID, userID int64) error {
	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(qCtx,
		"INSERT OR IGNORE INTO album_policy_users (album_id, user_id) VALUES (?, ?)",
		albumID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to grant album access: %w", err)
	}
	return nil
}

// AllowPhotoUser grants a user access to a single photo.
func (d *Database) AllowPhotoUser(ctx context.Context, photoID, userID int64) error {
	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(qCtx,
		"INSERT OR IGNORE INTO photo_policy_users (photo_id, user_id) VALUES (?, ?)",
		photoID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to grant photo access: %w", err)
	}
	return nil
}

// CanView decides whether user may see the photo. user may be nil
// (anonymous). Admins see everything. A photo policy, when present,
// overrides the album policy; otherwise the album policy applies only if
// it is marked to cover its photos. No policy at all means private.
func (d *Database) CanView(ctx context.Context, user *User, photoID int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("can_view", start, err) }()

	if user != nil && user.IsAdmin {
		return true, nil
	}

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var userID int64 = -1
	if user != nil {
		userID = user.ID
	}

	// Photo-level policy first.
	var public int
	err = d.db.QueryRowContext(qCtx,
		"SELECT public FROM photo_policies WHERE photo_id = ?", photoID).Scan(&public)
	switch {
	case err == nil:
		if public != 0 {
			return true, nil
		}
		return d.userListed(qCtx,
			"SELECT 1 FROM photo_policy_users WHERE photo_id = ? AND user_id = ?", photoID, userID)
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	default:
		return false, fmt.Errorf("failed to check photo policy: %w", err)
	}

	// Fall back to the album policy, but only when it covers its photos.
	var albumID int64
	var inherit int
	err = d.db.QueryRowContext(qCtx, `
		SELECT a.id, ap.public, ap.inherit
		FROM photos p
		JOIN albums a ON a.id = p.album_id
		JOIN album_policies ap ON ap.album_id = a.id
		WHERE p.id = ?`, photoID,
	).Scan(&albumID, &public, &inherit)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check album policy: %w", err)
	}

	if inherit == 0 {
		return false, nil
	}
	if public != 0 {
		return true, nil
	}
	return d.userListed(qCtx,
		"SELECT 1 FROM album_policy_users WHERE album_id = ? AND user_id = ?", albumID, userID)
}

func (d *Database) userListed(ctx context.Context, query string, ownerID, userID int64) (bool, error) {
	if userID < 0 {
		return false, nil
	}
	var one int
	err := d.db.QueryRowContext(ctx, query, ownerID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check policy users: %w", err)
	}
	return true, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

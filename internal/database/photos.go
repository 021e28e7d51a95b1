package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoSuchPhoto is returned when a photo id does not exist.
var ErrNoSuchPhoto = errors.New("no such photo")

// UpsertAlbum inserts or refreshes an album by its relative directory path
// and returns its id.
func (d *Database) UpsertAlbum(ctx context.Context, dirpath, name string, date time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_album", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(qCtx, `
		INSERT INTO albums (dirpath, name, date) VALUES (?, ?, ?)
		ON CONFLICT(dirpath) DO UPDATE SET name = excluded.name, date = excluded.date`,
		dirpath, name, date.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert album %s: %w", dirpath, err)
	}

	var id int64
	err = d.db.QueryRowContext(qCtx, "SELECT id FROM albums WHERE dirpath = ?", dirpath).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up album %s: %w", dirpath, err)
	}
	return id, nil
}

// UpsertPhoto inserts or refreshes a photo and returns its id.
func (d *Database) UpsertPhoto(ctx context.Context, albumID int64, filename string, date time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_photo", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(qCtx, `
		INSERT INTO photos (album_id, filename, date) VALUES (?, ?, ?)
		ON CONFLICT(album_id, filename) DO UPDATE SET date = excluded.date`,
		albumID, filename, date.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert photo %s: %w", filename, err)
	}

	var id int64
	err = d.db.QueryRowContext(qCtx,
		"SELECT id FROM photos WHERE album_id = ? AND filename = ?", albumID, filename).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up photo %s: %w", filename, err)
	}
	return id, nil
}

// PhotoByID returns the photo with the given id, including its album's
// directory path.
func (d *Database) PhotoByID(ctx context.Context, id int64) (*Photo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("photo_by_id", start, err) }()

	qCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p Photo
	var date int64
	err = d.db.QueryRowContext(qCtx, `
		SELECT p.id, p.album_id, a.dirpath, p.filename, p.date
		FROM photos p JOIN albums a ON a.id = p.album_id
		WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.AlbumID, &p.AlbumDir, &p.Filename, &date)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoSuchPhoto
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load photo %d: %w", id, err)
	}
	p.Date = time.Unix(date, 0)
	return &p, nil
}

package database

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Album is a directory of photos under the gallery root.
type Album struct {
	ID      int64     `json:"id"`
	Dirpath string    `json:"dirpath"` // relative to the gallery root
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
}

// Photo is one image file inside an album.
type Photo struct {
	ID       int64     `json:"id"`
	AlbumID  int64     `json:"albumId"`
	AlbumDir string    `json:"albumDir"`
	Filename string    `json:"filename"`
	Date     time.Time `json:"date"`
}

// AbsPath returns the photo's location under the gallery root.
func (p *Photo) AbsPath(galleryDir string) string {
	return filepath.Join(galleryDir, p.AlbumDir, p.Filename)
}

// extensions the thumbnail encoder can produce; anything else is re-encoded
// as JPEG.
var encodableExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".tif": true, ".tiff": true, ".bmp": true,
}

// ThumbnailName returns the cache-relative name of this photo's thumbnail
// for a preset. Names are deterministic, so "the file exists" doubles as
// the cache lookup.
func (p *Photo) ThumbnailName(preset string, width, height int) string {
	ext := strings.ToLower(filepath.Ext(p.Filename))
	if !encodableExt[ext] {
		ext = ".jpg"
	}
	return filepath.Join(preset, fmt.Sprintf("%d_%dx%d%s", p.ID, width, height, ext))
}

// User is an account that may be granted access to albums and photos.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an authenticated browser session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionDuration is the length of time a session remains valid.
const SessionDuration = 7 * 24 * time.Hour

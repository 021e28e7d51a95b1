package database

import (
	"context"
	"testing"
	"time"
)

// accessFixture builds one album with one photo and three users.
type accessFixture struct {
	db      *Database
	albumID int64
	photoID int64
	admin   *User
	alice   *User
	bob     *User
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	db := testDB(t)
	ctx := context.Background()
	date := time.Now()

	albumID, err := db.UpsertAlbum(ctx, "2024/trip", "trip", date)
	if err != nil {
		t.Fatalf("UpsertAlbum() error = %v", err)
	}
	photoID, err := db.UpsertPhoto(ctx, albumID, "IMG_0001.jpg", date)
	if err != nil {
		t.Fatalf("UpsertPhoto() error = %v", err)
	}

	mkUser := func(name string, admin bool) *User {
		id, err := db.CreateUser(ctx, name, "pw", admin)
		if err != nil {
			t.Fatalf("CreateUser(%s) error = %v", name, err)
		}
		return &User{ID: id, Username: name, IsAdmin: admin}
	}

	return &accessFixture{
		db:      db,
		albumID: albumID,
		photoID: photoID,
		admin:   mkUser("root", true),
		alice:   mkUser("alice", false),
		bob:     mkUser("bob", false),
	}
}

func (f *accessFixture) check(t *testing.T, user *User, want bool) {
	t.Helper()
	got, err := f.db.CanView(context.Background(), user, f.photoID)
	if err != nil {
		t.Fatalf("CanView() error = %v", err)
	}
	if got != want {
		name := "anonymous"
		if user != nil {
			name = user.Username
		}
		t.Errorf("CanView(%s) = %v, want %v", name, got, want)
	}
}

func TestCanViewNoPolicy(t *testing.T) {
	f := newAccessFixture(t)

	// No policy at all means private to everyone but admins.
	f.check(t, nil, false)
	f.check(t, f.alice, false)
	f.check(t, f.admin, true)
}

func TestCanViewPublicPhoto(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	if err := f.db.SetPhotoPolicy(ctx, f.photoID, true); err != nil {
		t.Fatalf("SetPhotoPolicy() error = %v", err)
	}

	f.check(t, nil, true)
	f.check(t, f.alice, true)
}

func TestCanViewPhotoUserList(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	if err := f.db.SetPhotoPolicy(ctx, f.photoID, false); err != nil {
		t.Fatalf("SetPhotoPolicy() error = %v", err)
	}
	if err := f.db.AllowPhotoUser(ctx, f.photoID, f.alice.ID); err != nil {
		t.Fatalf("AllowPhotoUser() error = %v", err)
	}

	f.check(t, f.alice, true)
	f.check(t, f.bob, false)
	f.check(t, nil, false)
	f.check(t, f.admin, true)
}

func TestCanViewAlbumPolicy(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	t.Run("public album covering photos", func(t *testing.T) {
		if err := f.db.SetAlbumPolicy(ctx, f.albumID, true, true); err != nil {
			t.Fatalf("SetAlbumPolicy() error = %v", err)
		}
		f.check(t, nil, true)
		f.check(t, f.alice, true)
	})

	t.Run("public album not covering photos", func(t *testing.T) {
		if err := f.db.SetAlbumPolicy(ctx, f.albumID, true, false); err != nil {
			t.Fatalf("SetAlbumPolicy() error = %v", err)
		}
		f.check(t, nil, false)
		f.check(t, f.alice, false)
		f.check(t, f.admin, true)
	})

	t.Run("restricted album with user list", func(t *testing.T) {
		if err := f.db.SetAlbumPolicy(ctx, f.albumID, false, true); err != nil {
			t.Fatalf("SetAlbumPolicy() error = %v", err)
		}
		if err := f.db.AllowAlbumUser(ctx, f.albumID, f.alice.ID); err != nil {
			t.Fatalf("AllowAlbumUser() error = %v", err)
		}
		f.check(t, f.alice, true)
		f.check(t, f.bob, false)
		f.check(t, nil, false)
	})
}

func TestCanViewPhotoPolicyOverridesAlbum(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	// Album is wide open, but the photo's own policy locks it down.
	if err := f.db.SetAlbumPolicy(ctx, f.albumID, true, true); err != nil {
		t.Fatalf("SetAlbumPolicy() error = %v", err)
	}
	if err := f.db.SetPhotoPolicy(ctx, f.photoID, false); err != nil {
		t.Fatalf("SetPhotoPolicy() error = %v", err)
	}

	f.check(t, nil, false)
	f.check(t, f.alice, false)
	f.check(t, f.admin, true)

	// And the reverse: private album, public photo.
	if err := f.db.SetAlbumPolicy(ctx, f.albumID, false, true); err != nil {
		t.Fatalf("SetAlbumPolicy() error = %v", err)
	}
	if err := f.db.SetPhotoPolicy(ctx, f.photoID, true); err != nil {
		t.Fatalf("SetPhotoPolicy() error = %v", err)
	}

	f.check(t, nil, true)
	f.check(t, f.bob, true)
}

package serve

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// writeFile creates a file with known content and a fixed mtime and
// returns its path and FileInfo.
func writeFile(t *testing.T, dir, name, content string) (string, os.FileInfo) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// A whole-second mtime keeps the If-Modified-Since comparisons exact.
	mtime := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	return path, info
}

func TestServeNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "library", "secret-album", "nope.jpg")

	_, err := Serve(missing, "", Options{Debug: true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Serve() error = %v, want ErrNotFound", err)
	}

	// The error text must not leak any part of the filesystem path.
	for _, fragment := range []string{"library", "secret-album", "nope.jpg", "/"} {
		if strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q leaks path fragment %q", err.Error(), fragment)
		}
	}
}

func TestServeDebugReadsBody(t *testing.T) {
	path, info := writeFile(t, t.TempDir(), "a.jpg", "jpeg bytes")

	resp, err := Serve(path, "", Options{Debug: true})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != "jpeg bytes" {
		t.Errorf("Body = %q, want %q", resp.Body, "jpeg bytes")
	}
	if resp.SendfileHeader != "" {
		t.Errorf("SendfileHeader = %q, want empty in debug mode", resp.SendfileHeader)
	}
	if resp.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", resp.ContentType)
	}
	if resp.ContentLength != info.Size() {
		t.Errorf("ContentLength = %d, want %d", resp.ContentLength, info.Size())
	}
}

func TestServeSendfileDelegation(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeFile(t, dir, filepath.Join("a", "x.jpg"), "data")

	resp, err := Serve(path, "", Options{
		SendfileHeader: "X-Accel-Redirect",
		SendfileRoot:   dir,
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.SendfileHeader != "X-Accel-Redirect" {
		t.Errorf("SendfileHeader = %q, want X-Accel-Redirect", resp.SendfileHeader)
	}
	want := "/a/x.jpg"
	if resp.SendfilePath != want {
		t.Errorf("SendfilePath = %q, want %q", resp.SendfilePath, want)
	}
	if resp.Body != nil {
		t.Errorf("Body = %d bytes, want none in sendfile mode", len(resp.Body))
	}
}

func TestServeSendfileNoRoot(t *testing.T) {
	path, _ := writeFile(t, t.TempDir(), "x.jpg", "data")

	resp, err := Serve(path, "", Options{SendfileHeader: "X-SendFile"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	// With no root configured the absolute path passes through untouched.
	if resp.SendfilePath != path {
		t.Errorf("SendfilePath = %q, want %q", resp.SendfilePath, path)
	}
}

func TestServeSendfileOutsideRoot(t *testing.T) {
	path, _ := writeFile(t, t.TempDir(), "x.jpg", "data")

	_, err := Serve(path, "", Options{
		SendfileHeader: "X-Accel-Redirect",
		SendfileRoot:   "/data",
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Serve() error = %v, want ConfigError", err)
	}
}

func TestServeNotModified(t *testing.T) {
	path, info := writeFile(t, t.TempDir(), "x.jpg", "data")
	stamp := info.ModTime().UTC().Format(http.TimeFormat)

	tests := []struct {
		name            string
		ifModifiedSince string
		wantStatus      int
	}{
		{"exact match", stamp, http.StatusNotModified},
		{"match with length", stamp + "; length=" + strconv.FormatInt(info.Size(), 10), http.StatusNotModified},
		{"wrong length", stamp + "; length=1", http.StatusOK},
		{"older than file", "Mon, 01 Jan 2001 00:00:00 GMT", http.StatusOK},
		{"newer than file", "Mon, 01 Jan 2035 00:00:00 GMT", http.StatusNotModified},
		{"empty header", "", http.StatusOK},
		{"garbage header", "not a date", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Serve(path, tt.ifModifiedSince, Options{Debug: true})
			if err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.Status, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNotModified && resp.Body != nil {
				t.Error("304 response carries a body")
			}
		})
	}
}

func TestGuessType(t *testing.T) {
	tests := []struct {
		path         string
		wantType     string
		wantEncoding string
	}{
		{"photo.jpg", "image/jpeg", ""},
		{"photo.JPG", "image/jpeg", ""},
		{"photo.png", "image/png", ""},
		{"photo.gif", "image/gif", ""},
		{"photo.jpg.gz", "image/jpeg", "gzip"},
		{"photo.png.bz2", "image/png", "bzip2"},
		{"page.html.gz", "text/html; charset=utf-8", "gzip"},
		{"mystery", "application/octet-stream", ""},
		{"mystery.gz", "application/octet-stream", "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ctype, encoding := guessType(tt.path)
			if ctype != tt.wantType {
				t.Errorf("guessType(%q) type = %q, want %q", tt.path, ctype, tt.wantType)
			}
			if encoding != tt.wantEncoding {
				t.Errorf("guessType(%q) encoding = %q, want %q", tt.path, encoding, tt.wantEncoding)
			}
		})
	}
}

func TestWasModifiedSince(t *testing.T) {
	mtime := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	stamp := mtime.Format(http.TimeFormat)

	tests := []struct {
		name   string
		header string
		mtime  time.Time
		size   int64
		want   bool
	}{
		{"empty header", "", mtime, 4, true},
		{"equal time", stamp, mtime, 4, false},
		{"file newer", stamp, mtime.Add(2 * time.Second), 4, true},
		{"file older", stamp, mtime.Add(-2 * time.Second), 4, false},
		{"sub-second drift ignored", stamp, mtime.Add(500 * time.Millisecond), 4, false},
		{"matching length", stamp + "; length=4", mtime, 4, false},
		{"mismatched length", stamp + "; length=5", mtime, 4, true},
		{"unparseable date", "yesterday-ish", mtime, 4, true},
		{"unparseable length", stamp + "; length=abc", mtime, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wasModifiedSince(tt.header, tt.mtime, tt.size)
			if got != tt.want {
				t.Errorf("wasModifiedSince(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestResponseWrite(t *testing.T) {
	mtime := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("full response", func(t *testing.T) {
		resp := &Response{
			Status:         http.StatusOK,
			ContentType:    "image/jpeg",
			ContentLength:  4,
			LastModified:   mtime,
			Filename:       "photo.jpg",
			SendfileHeader: "X-Accel-Redirect",
			SendfilePath:   "/a/photo.jpg",
		}

		rec := httptest.NewRecorder()
		status := resp.Write(rec)

		if status != http.StatusOK {
			t.Errorf("Write() = %d, want 200", status)
		}
		h := rec.Header()
		if got := h.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := h.Get("Last-Modified"); got != mtime.Format(http.TimeFormat) {
			t.Errorf("Last-Modified = %q", got)
		}
		if got := h.Get("Content-Length"); got != "4" {
			t.Errorf("Content-Length = %q", got)
		}
		if got := h.Get("Content-Disposition"); got != "inline; filename=photo.jpg;" {
			t.Errorf("Content-Disposition = %q", got)
		}
		if got := h.Get("X-Accel-Redirect"); got != "/a/photo.jpg" {
			t.Errorf("X-Accel-Redirect = %q", got)
		}
	})

	t.Run("not modified", func(t *testing.T) {
		resp := &Response{
			Status:       http.StatusNotModified,
			ContentType:  "image/jpeg",
			LastModified: mtime,
		}

		rec := httptest.NewRecorder()
		status := resp.Write(rec)

		if status != http.StatusNotModified {
			t.Errorf("Write() = %d, want 304", status)
		}
		if got := rec.Header().Get("Content-Length"); got != "" {
			t.Errorf("304 carries Content-Length %q", got)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("304 carries body of %d bytes", rec.Body.Len())
		}
	})

	t.Run("unknown length omitted", func(t *testing.T) {
		resp := &Response{
			Status:        http.StatusOK,
			ContentType:   "application/octet-stream",
			ContentLength: -1,
			LastModified:  mtime,
		}

		rec := httptest.NewRecorder()
		resp.Write(rec)
		if got := rec.Header().Get("Content-Length"); got != "" {
			t.Errorf("Content-Length = %q, want unset", got)
		}
	})
}

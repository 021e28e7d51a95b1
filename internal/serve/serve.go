package serve

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the requested file does not exist. The text
// deliberately omits the path so the filesystem layout never leaks to
// clients.
var ErrNotFound = errors.New("requested file does not exist")

// ConfigError indicates the sendfile configuration does not cover the file
// being served. It signals a deployment problem, never a bad request.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "sendfile configuration error: " + e.Reason
}

// Options controls how files are transmitted.
type Options struct {
	// Debug selects direct reads over webserver delegation.
	Debug bool
	// SendfileHeader is the delegation header name: "X-Accel-Redirect"
	// for nginx, "X-SendFile" for Apache.
	SendfileHeader string
	// SendfileRoot is stripped from the path before delegation. When
	// non-empty, serving a file outside it is a hard error.
	SendfileRoot string
}

// Response is the HTTP-facing result of serving one file.
type Response struct {
	Status          int // 200 or 304
	ContentType     string
	ContentEncoding string
	ContentLength   int64 // -1 when unknown (non-regular files)
	LastModified    time.Time
	Filename        string // Content-Disposition filename, ASCII only
	SendfileHeader  string // delegation header name, empty in debug mode
	SendfilePath    string // delegation header value
	Body            []byte
}

// Serve builds the response for the file at path. Access control has
// already happened; path is trusted. ifModifiedSince is the raw request
// header, which may be empty.
func Serve(path, ifModifiedSince string, opts Options) (*Response, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrNotFound
	}

	ctype, encoding := guessType(path)

	if !wasModifiedSince(ifModifiedSince, info.ModTime(), info.Size()) {
		return &Response{
			Status:        http.StatusNotModified,
			ContentType:   ctype,
			ContentLength: -1,
			LastModified:  info.ModTime(),
		}, nil
	}

	resp := &Response{
		Status:          http.StatusOK,
		ContentType:     ctype,
		ContentEncoding: encoding,
		ContentLength:   -1,
		LastModified:    info.ModTime(),
	}

	if opts.Debug {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		resp.Body = body
	} else {
		delegated := path
		if opts.SendfileRoot != "" {
			if !strings.HasPrefix(delegated, opts.SendfileRoot) {
				return nil, &ConfigError{Reason: "file is outside the sendfile root"}
			}
			delegated = strings.TrimPrefix(delegated, opts.SendfileRoot)
		}
		resp.SendfileHeader = opts.SendfileHeader
		resp.SendfilePath = delegated
	}

	// Size is only meaningful for regular files; pipes and the like are
	// served without Content-Length.
	if info.Mode().IsRegular() {
		resp.ContentLength = info.Size()
	}

	return resp, nil
}

// Write emits the response on w and returns the status code written.
func (r *Response) Write(w http.ResponseWriter) int {
	h := w.Header()
	h.Set("Content-Type", r.ContentType)
	h.Set("Last-Modified", r.LastModified.UTC().Format(http.TimeFormat))

	if r.Status == http.StatusNotModified {
		w.WriteHeader(http.StatusNotModified)
		return r.Status
	}

	if r.ContentEncoding != "" {
		h.Set("Content-Encoding", r.ContentEncoding)
	}
	if r.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	}
	if r.Filename != "" {
		h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%s;", r.Filename))
	}
	if r.SendfileHeader != "" {
		h.Set(r.SendfileHeader, r.SendfilePath)
	}

	w.WriteHeader(r.Status)
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return r.Status
		}
	}
	return r.Status
}

// encodingByExt mirrors the classic mimetypes encoding table: these
// suffixes describe a transfer encoding layered over the real type.
var encodingByExt = map[string]string{
	".gz":  "gzip",
	".bz2": "bzip2",
	".xz":  "xz",
	".br":  "br",
}

// guessType maps a path to its content type and content encoding by
// extension. Compression suffixes are peeled first, so "a.jpg.gz" is
// image/jpeg with gzip encoding.
func guessType(path string) (ctype, encoding string) {
	ext := strings.ToLower(filepath.Ext(path))
	if enc, ok := encodingByExt[ext]; ok {
		encoding = enc
		path = strings.TrimSuffix(path, filepath.Ext(path))
		ext = strings.ToLower(filepath.Ext(path))
	}

	ctype = mime.TypeByExtension(ext)
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return ctype, encoding
}

// If-Modified-Since with an optional legacy length parameter.
var modifiedSinceRe = regexp.MustCompile(`^([^;]+)(?:;\s*length=([0-9]+))?$`)

// wasModifiedSince reports whether the file changed after the time the
// client last saw it. A missing or malformed header counts as modified,
// which degrades to a plain 200.
func wasModifiedSince(header string, modTime time.Time, size int64) bool {
	if header == "" {
		return true
	}
	m := modifiedSinceRe.FindStringSubmatch(header)
	if m == nil {
		return true
	}
	since, err := http.ParseTime(strings.TrimSpace(m[1]))
	if err != nil {
		return true
	}
	if m[2] != "" {
		length, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil || length != size {
			return true
		}
	}
	return modTime.Truncate(time.Second).After(since)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-gallery/internal/database"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/serve"
	"photo-gallery/internal/thumbnail"
)

// ServeOriginal delivers the full-size photo.
func (h *Handlers) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	photo := h.photoIfAllowed(w, r)
	if photo == nil {
		return
	}

	h.serveFile(w, r, photo.AbsPath(h.cfg.GalleryDir), serve.Asciify(photo.Filename))
}

// ServeResized delivers the photo scaled to a named preset, generating the
// thumbnail on cache miss.
func (h *Handlers) ServeResized(w http.ResponseWriter, r *http.Request) {
	presetName := mux.Vars(r)["preset"]
	preset, ok := h.cfg.Presets[presetName]
	if !ok {
		http.Error(w, "Unknown preset", http.StatusNotFound)
		return
	}

	photo := h.photoIfAllowed(w, r)
	if photo == nil {
		return
	}

	thumbPath := filepath.Join(h.cfg.ThumbnailDir,
		photo.ThumbnailName(presetName, preset.Width, preset.Height))

	if _, err := os.Stat(thumbPath); err == nil {
		metrics.ThumbnailCacheHitsTotal.WithLabelValues(presetName).Inc()
	} else {
		start := time.Now()
		err := h.engine.Make(photo.AbsPath(h.cfg.GalleryDir), thumbPath, preset.Geometry())
		metrics.ThumbnailGenerationDuration.WithLabelValues(presetName).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ThumbnailsGeneratedTotal.WithLabelValues(presetName, "error").Inc()
			var decodeErr *thumbnail.DecodeError
			if errors.As(err, &decodeErr) {
				logging.Error("photo %d is not decodable: %v", photo.ID, err)
			} else {
				logging.Error("thumbnail generation failed for photo %d: %v", photo.ID, err)
			}
			http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
			return
		}
		metrics.ThumbnailsGeneratedTotal.WithLabelValues(presetName, "success").Inc()
	}

	h.serveFile(w, r, thumbPath, resizedFilename(photo.Filename, preset.Width, preset.Height))
}

// photoIfAllowed resolves the photo from the request and enforces the
// access decision. When it returns nil the response has already been
// written.
func (h *Handlers) photoIfAllowed(w http.ResponseWriter, r *http.Request) *database.Photo {
	pk, err := strconv.ParseInt(mux.Vars(r)["pk"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid photo id", http.StatusBadRequest)
		return nil
	}

	photo, err := h.db.PhotoByID(r.Context(), pk)
	if errors.Is(err, database.ErrNoSuchPhoto) {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return nil
	}
	if err != nil {
		logging.Error("failed to load photo %d: %v", pk, err)
		http.Error(w, "Failed to load photo", http.StatusInternalServerError)
		return nil
	}

	user := h.requestUser(r)
	allowed, err := h.db.CanView(r.Context(), user, photo.ID)
	if err != nil {
		logging.Error("access check failed for photo %d: %v", photo.ID, err)
		http.Error(w, "Failed to check access", http.StatusInternalServerError)
		return nil
	}
	if !allowed {
		metrics.AccessDeniedTotal.Inc()
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}

	return photo
}

// serveFile transmits a permission-checked file with the given
// Content-Disposition filename.
func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, path, filename string) {
	resp, err := serve.Serve(path, r.Header.Get("If-Modified-Since"), h.serveOpts())
	if err != nil {
		var cfgErr *serve.ConfigError
		switch {
		case errors.Is(err, serve.ErrNotFound):
			metrics.MediaServedTotal.WithLabelValues(h.serveMode(), "404").Inc()
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.As(err, &cfgErr):
			// Misconfigured sendfile root: log loudly, reveal nothing.
			logging.Error("media serving misconfigured: %v", err)
			http.Error(w, "Server misconfiguration", http.StatusInternalServerError)
		default:
			logging.Error("failed to serve file: %v", err)
			http.Error(w, "Failed to serve file", http.StatusInternalServerError)
		}
		return
	}

	resp.Filename = filename
	status := resp.Write(w)
	metrics.MediaServedTotal.WithLabelValues(h.serveMode(), strconv.Itoa(status)).Inc()
}

// resizedFilename builds the download name for a resized photo:
// "IMG_1234_128x128.jpg" for the 128x128 preset of IMG_1234.jpg.
func resizedFilename(filename string, width, height int) string {
	ascii := serve.Asciify(filename)
	ext := filepath.Ext(ascii)
	root := strings.TrimSuffix(ascii, ext)
	return fmt.Sprintf("%s_%dx%d%s", root, width, height, ext)
}

package handlers

import (
	"context"
	"net/http"

	"photo-gallery/internal/config"
)

// HealthCheck reports basic liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// ReadinessCheck reports whether the server can answer photo requests.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.db.GetStats()
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"albums": stats.Albums,
		"photos": stats.Photos,
	})
}

// GetVersion returns the application version and build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, config.GetBuildInfo())
}

// GetStats returns catalog counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.db.GetStats()
	writeJSON(w, map[string]int{
		"albums": stats.Albums,
		"photos": stats.Photos,
	})
}

// TriggerRescan starts a gallery scan unless one is already running. Only
// admins may trigger it.
func (h *Handlers) TriggerRescan(w http.ResponseWriter, r *http.Request) {
	user := h.requestUser(r)
	if user == nil || !user.IsAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if h.scanner.IsScanning() {
		writeJSON(w, map[string]string{
			"status":  "already_running",
			"message": "Scan is already in progress",
		})
		return
	}

	// The scan must outlive the request.
	go func() {
		if err := h.scanner.Scan(context.Background()); err != nil {
			// Logged inside the scanner; nothing else to do here.
			_ = err
		}
	}()

	writeJSON(w, map[string]string{
		"status":  "started",
		"message": "Gallery scan started",
	})
}

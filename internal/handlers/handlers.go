package handlers

import (
	"encoding/json"
	"net/http"

	"photo-gallery/internal/config"
	"photo-gallery/internal/database"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/scanner"
	"photo-gallery/internal/serve"
	"photo-gallery/internal/thumbnail"
)

// Handlers bundles the dependencies of the HTTP endpoints.
type Handlers struct {
	db      *database.Database
	engine  *thumbnail.Engine
	scanner *scanner.Scanner
	cfg     *config.Config
}

// New creates the handler set.
func New(db *database.Database, engine *thumbnail.Engine, scn *scanner.Scanner, cfg *config.Config) *Handlers {
	return &Handlers{
		db:      db,
		engine:  engine,
		scanner: scn,
		cfg:     cfg,
	}
}

// serveOpts translates the configuration into media serving options.
func (h *Handlers) serveOpts() serve.Options {
	return serve.Options{
		Debug:          h.cfg.DebugServe,
		SendfileHeader: h.cfg.SendfileHeader,
		SendfileRoot:   h.cfg.SendfileRoot,
	}
}

// serveMode is the delivery-mode label for metrics.
func (h *Handlers) serveMode() string {
	if h.cfg.DebugServe {
		return "direct"
	}
	return "sendfile"
}

// requestUser resolves the session cookie to a user. Anonymous requests
// and broken sessions both come back nil.
func (h *Handlers) requestUser(r *http.Request) *database.User {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	user, err := h.db.SessionUser(r.Context(), cookie.Value)
	if err != nil {
		logging.Warn("failed to resolve session: %v", err)
		return nil
	}
	return user
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode JSON response: %v", err)
	}
}

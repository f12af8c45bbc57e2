package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tmrp/users-api/internal/config"
)

// isoMillis matches the ISO-8601 form with millisecond precision and a Z suffix.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// SystemHandler serves the welcome payload and the liveness check.
type SystemHandler struct {
	cfg *config.Config
	now func() time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg, now: time.Now}
}

// Routes registers the root and health routes.
func (h *SystemHandler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
}

// Root lists the public endpoints.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Welcome to " + h.cfg.AppName,
		"endpoints": map[string]string{
			"health": "/health",
			"users":  "/api/users",
		},
	})
}

// Health reports that the process is up.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(isoMillis),
	})
}

// NotFound answers unknown routes with a JSON body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known paths requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// InternalError is written after a recovered panic.
func InternalError(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusInternalServerError, "Internal server error")
}

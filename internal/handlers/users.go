package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/tmrp/users-api/internal/events"
	"github.com/tmrp/users-api/internal/users"
)

// UsersHandler provides CRUD endpoints for the user store.
type UsersHandler struct {
	store *users.Store
	hub   *events.Hub
	log   zerolog.Logger
	guard func(http.Handler) http.Handler
}

// UsersOption configures a UsersHandler.
type UsersOption func(*UsersHandler)

// WithWriteGuard wraps the POST, PUT and DELETE routes with mw.
func WithWriteGuard(mw func(http.Handler) http.Handler) UsersOption {
	return func(h *UsersHandler) {
		h.guard = mw
	}
}

// NewUsersHandler creates a new UsersHandler. hub may be nil.
func NewUsersHandler(store *users.Store, hub *events.Hub, log zerolog.Logger, opts ...UsersOption) *UsersHandler {
	h := &UsersHandler{store: store, hub: hub, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers user routes on the given chi router.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Get("/{id}", h.GetUser)

	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Post("/", h.CreateUser)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})
}

// ListUsers returns all users in creation order.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"users": h.store.List()})
}

// GetUser returns a single user.
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"user": u})
}

// CreateUser validates the body and stores a new user.
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	f, err := decodeUserFields(w, r)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	u, err := h.store.Create(deref(f.Name), deref(f.Email))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", u.ID).Msg("user created")
	h.publish(events.UserCreated, u)
	writeJSON(w, r, http.StatusCreated, map[string]interface{}{"user": u})
}

// UpdateUser applies a partial update. An unknown id is reported before the
// body is looked at.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Get(id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	f, err := decodeUserFields(w, r)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	u, err := h.store.Update(id, users.Patch{Name: f.Name, Email: f.Email})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", u.ID).Msg("user updated")
	h.publish(events.UserUpdated, u)
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"user": u})
}

// DeleteUser removes a user.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.store.Get(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.Delete(id); err != nil {
		writeStoreError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", id).Msg("user deleted")
	h.publish(events.UserDeleted, u)
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *UsersHandler) publish(t events.Type, u users.User) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(events.Event{Type: t, User: u})
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tmrp/users-api/internal/users"
)

// maxBodyBytes caps request bodies accepted by the JSON endpoints.
const maxBodyBytes = 1 << 20

// writeJSON serialises v as JSON and writes it to the response with the
// given HTTP status code. A "pretty" query parameter indents the output.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r != nil && r.URL.Query().Has("pretty") {
		enc.SetIndent("", "  ")
	}
	enc.Encode(v)
}

// writeError writes a standard JSON error response of the form
// {"error": "message"}.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, ve *users.ValidationError) {
	writeJSON(w, r, http.StatusBadRequest, map[string]interface{}{
		"error":  "Validation failed",
		"fields": ve.Fields,
	})
}

// writeStoreError maps store errors onto HTTP responses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *users.ValidationError
	switch {
	case errors.Is(err, users.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "User not found")
	case errors.As(err, &ve):
		writeValidationError(w, r, ve)
	default:
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// userFields is the decoded body of POST and PUT requests. Nil means the
// field was not supplied.
type userFields struct {
	Name  *string
	Email *string
}

// decodeUserFields reads a JSON object from the request body. Malformed
// JSON and fields of the wrong type are reported as validation failures so
// callers answer 400 for both. Unknown fields are ignored.
func decodeUserFields(w http.ResponseWriter, r *http.Request) (userFields, error) {
	var raw map[string]json.RawMessage

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return userFields{}, users.NewValidationError("body", "must be a valid JSON object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return userFields{}, users.NewValidationError("body", "must contain a single JSON object")
	}

	ve := &users.ValidationError{Fields: map[string]string{}}
	f := userFields{
		Name:  stringField(raw, "name", ve),
		Email: stringField(raw, "email", ve),
	}
	if len(ve.Fields) > 0 {
		return userFields{}, ve
	}
	return f, nil
}

func stringField(raw map[string]json.RawMessage, key string, ve *users.ValidationError) *string {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	var s *string
	if err := json.Unmarshal(msg, &s); err != nil || s == nil {
		ve.Fields[key] = "must be a string"
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

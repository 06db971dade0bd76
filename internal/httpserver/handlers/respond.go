package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"techtrack/internal/payload"
	"techtrack/internal/tracker"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses. The message is the
// error text itself: every validation failure already carries a
// human-readable reason.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrReadOnly), errors.Is(err, tracker.ErrNotCustom):
		status = http.StatusForbidden
	case errors.Is(err, tracker.ErrInvalid), errors.Is(err, payload.ErrInvalid):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeMutation reports a mutation result. A persistence failure is
// soft: the in-memory change took, so the body ships with HTTP 200 plus
// a warning instead of an error status.
func writeMutation(w http.ResponseWriter, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}
	if errors.Is(err, tracker.ErrPersist) {
		writeJSON(w, http.StatusOK, map[string]any{
			"result":  v,
			"warning": err.Error(),
		})
		return
	}
	writeError(w, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

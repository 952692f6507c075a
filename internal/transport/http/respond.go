package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"paygrid/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes sentinel error translation to HTTP responses so
// every handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sentinel.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, sentinel.ErrInvalidState):
		status, code = http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, sentinel.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": err.Error(),
	})
}

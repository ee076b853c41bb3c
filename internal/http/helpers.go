package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps the error taxonomy onto HTTP statuses. Invariant
// violations surface as 500s: they mean a bug, not bad input.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrUnauthorized):
		writeErrorMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.Validationf("invalid request body: %v", err)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. The zero time signals
// "not provided" to the caller.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.Validationf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

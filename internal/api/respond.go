package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"zervos/internal/booking"
	"zervos/internal/db"
	"zervos/internal/model"
	"zervos/internal/pos"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON document into v and reports failures itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, pos.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrNotFound), errors.Is(err, pos.ErrTabNotFound), errors.Is(err, pos.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSlotUnavailable), errors.Is(err, db.ErrCapacityFull):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err onto a status. Internal errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// orEmpty keeps list responses as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"freightline/auth"
	"freightline/carrier"
	"freightline/load"
	"freightline/match"
	"freightline/negotiation"
	"freightline/outcome"
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

// respondError maps domain sentinels onto HTTP statuses. Unrecognized errors
// become opaque 500s; the detail goes to the log, not the caller.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		writeError(w, status, "unable to process request")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, carrier.ErrInvalidMCNumber),
		errors.Is(err, match.ErrEquipmentRequired),
		errors.Is(err, match.ErrInvalidEquipment),
		errors.Is(err, match.ErrInvalidCriteria),
		errors.Is(err, load.ErrInvalidEquipment),
		errors.Is(err, negotiation.ErrInvalidOffer),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, load.ErrNotFound),
		errors.Is(err, negotiation.ErrNotFound),
		errors.Is(err, outcome.ErrNotFound),
		errors.Is(err, auth.ErrOperatorNotFound):
		return http.StatusNotFound
	case errors.Is(err, negotiation.ErrSessionTerminal),
		errors.Is(err, negotiation.ErrVersionConflict),
		errors.Is(err, load.ErrAlreadyAssigned),
		errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, outcome.ErrSessionOpen):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

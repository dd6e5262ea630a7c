package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dnslease/internal/model"
	"dnslease/internal/service"
)

// Sessions resolves the authenticated caller for a request.
type Sessions interface {
	GetUsername(r *http.Request) (string, bool)
}

// AuditLog records mutating actions.
type AuditLog interface {
	LogAudit(entry model.AuditEntry) error
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNameTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrLeaseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		status = http.StatusForbidden
	default:
		var perr *service.ProviderError
		if errors.As(err, &perr) {
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

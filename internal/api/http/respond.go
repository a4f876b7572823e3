package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

const maxBodyBytes = 4 << 20

// WriteJSON encodes value with the given status.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, signatures.ErrValidation),
		errors.Is(err, mappings.ErrValidation),
		errors.Is(err, equipment.ErrValidation),
		errors.Is(err, points.ErrInvalidKind),
		errors.Is(err, points.ErrMalformedKey):
		return http.StatusBadRequest
	case errors.Is(err, signatures.ErrNotFound),
		errors.Is(err, mappings.ErrNotFound),
		errors.Is(err, equipment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mappings.ErrConflict),
		errors.Is(err, signatures.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with its mapped status. Internal errors are not
// echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	WriteJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes a bounded request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ukydev/vehicle-rentals/internal/rental"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRentalError maps engine error kinds to HTTP statuses.
func writeRentalError(w http.ResponseWriter, err error) {
	var availErr *rental.AvailabilityError
	switch {
	case errors.Is(err, rental.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, rental.ErrRentalNotFound), errors.Is(err, rental.ErrVehicleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &availErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "vehicle unavailable",
			"reason": availErr.Reason,
		})
	case errors.Is(err, rental.ErrInvalidStateTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, rental.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

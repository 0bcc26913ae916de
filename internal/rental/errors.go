package rental

import (
	"errors"
	"fmt"

	"github.com/ukydev/vehicle-rentals/internal/models"
)

var (
	// ErrInvalidInput covers malformed dates and non-positive renewal spans.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRentalNotFound is returned when the referenced rental does not exist.
	ErrRentalNotFound = errors.New("rental not found")

	// ErrVehicleNotFound is returned when the referenced vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrInvalidStateTransition re-exports the entity guard error so callers
	// can branch on it without importing models.
	ErrInvalidStateTransition = models.ErrInvalidStateTransition

	// ErrVehicleUnavailable is returned when the availability check fails.
	// Use errors.As with *AvailabilityError to read the reason.
	ErrVehicleUnavailable = errors.New("vehicle unavailable")

	// ErrConcurrencyConflict is returned when a reservation attempt lost the
	// race for the vehicle. The caller may retry a bounded number of times.
	ErrConcurrencyConflict = errors.New("concurrent reservation conflict")
)

// Availability reasons attached to AvailabilityError.
const (
	ReasonVehicleNotFound     = "vehicle not found"
	ReasonVehicleNotAvailable = "vehicle not available"
	ReasonOverlappingPeriods  = "overlapping rental periods"
)

// AvailabilityError reports why a vehicle cannot be reserved for a window.
type AvailabilityError struct {
	VehicleID string
	Reason    string
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("vehicle %s unavailable: %s", e.VehicleID, e.Reason)
}

// Unwrap makes errors.Is(err, ErrVehicleUnavailable) hold.
func (e *AvailabilityError) Unwrap() error {
	return ErrVehicleUnavailable
}

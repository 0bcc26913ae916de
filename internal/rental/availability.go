package rental

import (
	"context"
	"time"

	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/models"
)

// Availability is the outcome of an availability check. Reason is set only
// when Available is false.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Inventory answers availability questions about the vehicle pool. It never
// mutates state; the transaction service reuses it as the first step of a
// reservation.
type Inventory struct {
	vehicles db.VehicleCollection
	rentals  db.RentalCollection
}

// NewInventory creates an inventory service over the given stores.
func NewInventory(vehicles db.VehicleCollection, rentals db.RentalCollection) *Inventory {
	return &Inventory{
		vehicles: vehicles,
		rentals:  rentals,
	}
}

// IsVehicleAvailable checks whether the vehicle can be reserved for the
// half-open window [start, end). The result is a pure function of current
// store state.
func (s *Inventory) IsVehicleAvailable(ctx context.Context, vehicleID string, start, end time.Time) (Availability, error) {
	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		if err == db.ErrNotFound {
			return Availability{Available: false, Reason: ReasonVehicleNotFound}, nil
		}
		return Availability{}, err
	}

	// Maintenance blocks outright. A rented status alone does not: future
	// windows that clear the overlap search below are still reservable, and
	// the status flag can be stale.
	if vehicle.Status == models.VehicleStatusMaintenance {
		return Availability{Available: false, Reason: ReasonVehicleNotAvailable}, nil
	}

	overlapping, err := s.rentals.FindOverlapping(ctx, vehicleID, start, end)
	if err != nil {
		return Availability{}, err
	}
	if len(overlapping) > 0 {
		return Availability{Available: false, Reason: ReasonOverlappingPeriods}, nil
	}

	return Availability{Available: true}, nil
}

// QueryAvailableVehicles returns vehicles marked available that also have no
// pending or active rental attached. The second check guards against a stale
// status flag.
func (s *Inventory) QueryAvailableVehicles(ctx context.Context, filter db.VehicleFilter) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.FindAvailableVehicles(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]models.Vehicle, 0, len(vehicles))
	for _, vehicle := range vehicles {
		holder, err := s.rentals.FindActiveOrPendingByVehicle(ctx, vehicle.ID)
		if err != nil {
			return nil, err
		}
		if holder == nil {
			result = append(result, vehicle)
		}
	}
	return result, nil
}

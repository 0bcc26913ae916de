package rental

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/models"
)

// ErrVehicleNotReleased reports that a rental was returned but its vehicle
// record was missing, so the vehicle could not be freed. The rental update
// stands; callers must escalate this as a data-consistency anomaly instead
// of dropping it.
var ErrVehicleNotReleased = fmt.Errorf("rental returned but vehicle not released: %w", ErrVehicleNotFound)

// TransactionService is the only component allowed to mutate Vehicle and
// Rental together. It serializes reservations per vehicle and lifecycle
// operations per rental with in-process keyed locks, so the check-then-write
// sequence of InitiateRental cannot interleave with a competing reservation
// on the same vehicle.
type TransactionService struct {
	rentals      db.RentalCollection
	vehicles     db.VehicleCollection
	inventory    *Inventory
	vehicleLocks *keyedMutex
	rentalLocks  *keyedMutex
	now          func() time.Time
}

// NewTransactionService creates a transaction service. The clock is an
// explicit dependency; pass nil to use time.Now.
func NewTransactionService(rentals db.RentalCollection, vehicles db.VehicleCollection, inventory *Inventory, now func() time.Time) *TransactionService {
	if now == nil {
		now = time.Now
	}
	return &TransactionService{
		rentals:      rentals,
		vehicles:     vehicles,
		inventory:    inventory,
		vehicleLocks: newKeyedMutex(),
		rentalLocks:  newKeyedMutex(),
		now:          now,
	}
}

// InitiateRental reserves the vehicle for [startAt, endAt) and creates a
// pending rental. The availability check and the rental-plus-vehicle write
// run under the vehicle lock as one atomic unit.
func (s *TransactionService) InitiateRental(ctx context.Context, vehicleID, userID string, startAt, endAt time.Time) (*models.Rental, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	userID = strings.TrimSpace(userID)
	if vehicleID == "" || userID == "" {
		return nil, fmt.Errorf("%w: vehicle and user are required", ErrInvalidInput)
	}

	now := s.now()
	if !startAt.After(now) {
		return nil, fmt.Errorf("%w: start date must be in the future", ErrInvalidInput)
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}

	unlock := s.vehicleLocks.Lock(vehicleID)
	defer unlock()

	availability, err := s.inventory.IsVehicleAvailable(ctx, vehicleID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, &AvailabilityError{VehicleID: vehicleID, Reason: availability.Reason}
	}

	rental := models.Rental{
		ID:           uuid.NewString(),
		VehicleID:    vehicleID,
		UserID:       userID,
		Status:       models.RentalStatusPending,
		StartAt:      startAt,
		EndAt:        endAt,
		RenewedCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.rentals.InsertRental(ctx, rental); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		s.rollBackReservation(ctx, rental)
		if err == db.ErrNotFound {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	vehicle.MarkAsRented(rental.ID)
	vehicle.UpdatedAt = now
	if err := s.vehicles.UpdateVehicle(ctx, vehicleID, *vehicle); err != nil {
		s.rollBackReservation(ctx, rental)
		if err == db.ErrNotFound {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	return &rental, nil
}

// rollBackReservation cancels a freshly created rental when the paired
// vehicle write failed, so no half-committed reservation survives.
func (s *TransactionService) rollBackReservation(ctx context.Context, rental models.Rental) {
	rental.Status = models.RentalStatusCanceled
	rental.UpdatedAt = s.now()
	if err := s.rentals.UpdateRental(ctx, rental.ID, rental); err != nil {
		log.WithFields(log.Fields{
			"rental_id":  rental.ID,
			"vehicle_id": rental.VehicleID,
		}).WithError(err).Error("Failed to roll back reservation")
	}
}

// ActivateRental records the payment reference and moves a pending rental to
// active.
func (s *TransactionService) ActivateRental(ctx context.Context, rentalID, paymentRef string) (*models.Rental, error) {
	unlock := s.rentalLocks.Lock(rentalID)
	defer unlock()

	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	// The payment reference is written at most once.
	if rental.PaymentRef != "" && rental.PaymentRef != paymentRef {
		return nil, ErrInvalidStateTransition
	}

	rental.PaymentRef = paymentRef
	if err := rental.Activate(s.now()); err != nil {
		return nil, err
	}

	if err := s.rentals.UpdateRental(ctx, rentalID, *rental); err != nil {
		return nil, err
	}
	return rental, nil
}

// RenewRental extends an active rental by the given number of calendar days.
func (s *TransactionService) RenewRental(ctx context.Context, rentalID string, additionalDays int) (*models.Rental, error) {
	if additionalDays <= 0 {
		return nil, fmt.Errorf("%w: additional days must be positive", ErrInvalidInput)
	}

	unlock := s.rentalLocks.Lock(rentalID)
	defer unlock()

	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	newEndAt := rental.EndAt.AddDate(0, 0, additionalDays)
	if err := rental.Renew(newEndAt, s.now()); err != nil {
		return nil, err
	}

	if err := s.rentals.UpdateRental(ctx, rentalID, *rental); err != nil {
		return nil, err
	}
	return rental, nil
}

// EndRental closes out a pending or active rental. The vehicle stays
// occupied until ReturnRental.
func (s *TransactionService) EndRental(ctx context.Context, rentalID string) (*models.Rental, error) {
	unlock := s.rentalLocks.Lock(rentalID)
	defer unlock()

	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	if err := rental.End(s.now()); err != nil {
		return nil, err
	}

	if err := s.rentals.UpdateRental(ctx, rentalID, *rental); err != nil {
		return nil, err
	}
	return rental, nil
}

// ReturnRental marks the rental returned and frees its vehicle. When the
// vehicle record is missing the rental update stands and the call returns
// the rental together with ErrVehicleNotReleased.
func (s *TransactionService) ReturnRental(ctx context.Context, rentalID string) (*models.Rental, error) {
	unlock := s.rentalLocks.Lock(rentalID)
	defer unlock()

	rental, err := s.loadRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}

	if err := rental.MarkAsReturned(s.now()); err != nil {
		return nil, err
	}

	if err := s.rentals.UpdateRental(ctx, rentalID, *rental); err != nil {
		return nil, err
	}

	unlockVehicle := s.vehicleLocks.Lock(rental.VehicleID)
	defer unlockVehicle()

	vehicle, err := s.vehicles.FindVehicleByID(ctx, rental.VehicleID)
	if err != nil {
		if err == db.ErrNotFound {
			log.WithFields(log.Fields{
				"rental_id":  rental.ID,
				"vehicle_id": rental.VehicleID,
			}).Warn("Vehicle missing during return, not released")
			return rental, ErrVehicleNotReleased
		}
		return rental, err
	}

	vehicle.MarkAsAvailable()
	vehicle.UpdatedAt = s.now()
	if err := s.vehicles.UpdateVehicle(ctx, rental.VehicleID, *vehicle); err != nil {
		if err == db.ErrNotFound {
			return rental, ErrVehicleNotReleased
		}
		return rental, err
	}

	return rental, nil
}

func (s *TransactionService) loadRental(ctx context.Context, rentalID string) (*models.Rental, error) {
	rental, err := s.rentals.FindRentalByID(ctx, rentalID)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return rental, nil
}

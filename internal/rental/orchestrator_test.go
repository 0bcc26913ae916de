package rental

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/models"
)

type fixture struct {
	rentals  *db.MemoryRentalCollection
	vehicles *db.MemoryVehicleCollection
	service  *TransactionService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rentals := db.NewMemoryRentalCollection()
	vehicles := db.NewMemoryVehicleCollection()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	service := NewTransactionService(rentals, vehicles, NewInventory(vehicles, rentals), func() time.Time { return now })
	return &fixture{rentals: rentals, vehicles: vehicles, service: service, now: now}
}

func (f *fixture) addVehicle(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.vehicles.InsertVehicle(context.Background(), models.Vehicle{
		ID:     id,
		Plate:  "PL-" + id,
		Model:  "Golf",
		Status: models.VehicleStatusAvailable,
	}))
}

func TestInitiateRental(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)

	rental, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, end)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusPending, rental.Status)
	assert.Equal(t, "v1", rental.VehicleID)
	assert.Equal(t, "u1", rental.UserID)
	assert.Equal(t, 0, rental.RenewedCount)

	stored, err := f.rentals.FindRentalByID(context.Background(), rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusPending, stored.Status)

	vehicle, err := f.vehicles.FindVehicleByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusRented, vehicle.Status)
	assert.Equal(t, rental.ID, vehicle.CurrentRentalID)
}

func TestInitiateRental_InvalidInput(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	future := f.now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		vehicleID  string
		userID     string
		start, end time.Time
	}{
		{"start in the past", "v1", "u1", f.now.Add(-time.Hour), future},
		{"start equals now", "v1", "u1", f.now, future},
		{"end before start", "v1", "u1", future, future.Add(-time.Hour)},
		{"end equals start", "v1", "u1", future, future},
		{"missing vehicle id", "", "u1", future, future.Add(time.Hour)},
		{"missing user id", "v1", "", future, future.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.InitiateRental(context.Background(), tt.vehicleID, tt.userID, tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestInitiateRental_UnknownVehicle(t *testing.T) {
	f := newFixture(t)
	start := f.now.Add(24 * time.Hour)

	_, err := f.service.InitiateRental(context.Background(), "ghost", "u1", start, start.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrVehicleUnavailable)

	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, ReasonVehicleNotFound, availErr.Reason)
}

func TestInitiateRental_Scenario(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	day := 24 * time.Hour
	d1 := f.now.Add(day)

	// First reservation takes [d1, d1+7d).
	first, err := f.service.InitiateRental(context.Background(), "v1", "u1", d1, d1.Add(7*day))
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusPending, first.Status)

	// An overlapping window is refused with the overlap reason.
	_, err = f.service.InitiateRental(context.Background(), "v1", "u2", d1.Add(2*day), d1.Add(3*day))
	require.ErrorIs(t, err, ErrVehicleUnavailable)
	var availErr *AvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, ReasonOverlappingPeriods, availErr.Reason)

	// A disjoint future window succeeds while the first rental still holds
	// its own window.
	third, err := f.service.InitiateRental(context.Background(), "v1", "u3", d1.Add(8*day), d1.Add(10*day))
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusPending, third.Status)
}

func TestInitiateRental_ConcurrentOverlap(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.InitiateRental(context.Background(), "v1", "u", start.Add(time.Duration(i)*time.Hour), end)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		refused := errors.Is(err, ErrVehicleUnavailable) || errors.Is(err, ErrConcurrencyConflict)
		assert.True(t, refused, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded, "exactly one overlapping reservation may win")

	holder, err := f.rentals.FindActiveOrPendingByVehicle(context.Background(), "v1")
	require.NoError(t, err)
	require.NotNil(t, holder)

	vehicle, err := f.vehicles.FindVehicleByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, holder.ID, vehicle.CurrentRentalID)
}

func TestInitiateRental_ConcurrentDistinctVehicles(t *testing.T) {
	f := newFixture(t)
	const vehicles = 8
	ids := make([]string, vehicles)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		f.addVehicle(t, ids[i])
	}

	start := f.now.Add(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, vehicles)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, err := f.service.InitiateRental(context.Background(), id, "u", start, end)
			errs[i] = err
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "vehicle %s", ids[i])
	}
}

func TestActivateRental(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, start.Add(24*time.Hour))
	require.NoError(t, err)

	activated, err := f.service.ActivateRental(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusActive, activated.Status)
	assert.Equal(t, "pay-1", activated.PaymentRef)
}

func TestActivateRental_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ActivateRental(context.Background(), "ghost", "pay-1")
	assert.ErrorIs(t, err, ErrRentalNotFound)
}

func TestActivateRental_NotPending(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, start.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = f.service.ActivateRental(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)

	// Second activation with a different payment ref must fail and leave the
	// rental untouched.
	before, err := f.rentals.FindRentalByID(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.service.ActivateRental(context.Background(), created.ID, "pay-2")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	after, err := f.rentals.FindRentalByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRenewRental(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, start.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = f.service.ActivateRental(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)

	renewed, err := f.service.RenewRental(context.Background(), created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, created.EndAt.AddDate(0, 0, 3), renewed.EndAt)
	assert.Equal(t, 1, renewed.RenewedCount)
}

func TestRenewRental_InvalidDays(t *testing.T) {
	f := newFixture(t)
	for _, days := range []int{0, -1} {
		_, err := f.service.RenewRental(context.Background(), "r1", days)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestRenewRental_NotActive(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, start.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = f.service.RenewRental(context.Background(), created.ID, 3)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestEndRental_KeepsVehicleOccupied(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, start.Add(24*time.Hour))
	require.NoError(t, err)

	ended, err := f.service.EndRental(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusEnded, ended.Status)

	vehicle, err := f.vehicles.FindVehicleByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusRented, vehicle.Status)
	assert.Equal(t, created.ID, vehicle.CurrentRentalID)
}

func TestReturnRental_FreesVehicle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, end)
	require.NoError(t, err)
	_, err = f.service.ActivateRental(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)

	// Overlapping window is blocked while the rental holds the vehicle.
	inventory := NewInventory(f.vehicles, f.rentals)
	blocked, err := inventory.IsVehicleAvailable(context.Background(), "v1", start, end)
	require.NoError(t, err)
	assert.False(t, blocked.Available)

	returned, err := f.service.ReturnRental(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusReturned, returned.Status)

	vehicle, err := f.vehicles.FindVehicleByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusAvailable, vehicle.Status)
	assert.Empty(t, vehicle.CurrentRentalID)

	// The previously blocked window reports available again.
	freed, err := inventory.IsVehicleAvailable(context.Background(), "v1", start, end)
	require.NoError(t, err)
	assert.True(t, freed.Available)
}

func TestReturnRental_MissingVehicleAnomaly(t *testing.T) {
	f := newFixture(t)
	start := f.now.Add(24 * time.Hour)
	rental := models.Rental{
		ID:        "r1",
		VehicleID: "gone",
		UserID:    "u1",
		Status:    models.RentalStatusActive,
		StartAt:   start,
		EndAt:     start.Add(24 * time.Hour),
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.rentals.InsertRental(context.Background(), rental))

	returned, err := f.service.ReturnRental(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrVehicleNotReleased)
	require.NotNil(t, returned)
	assert.Equal(t, models.RentalStatusReturned, returned.Status)

	// The rental update stands despite the anomaly.
	stored, err := f.rentals.FindRentalByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RentalStatusReturned, stored.Status)
}

func TestFullLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle(t, "v1")
	start := f.now.Add(24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)

	created, err := f.service.InitiateRental(context.Background(), "v1", "u1", start, end)
	require.NoError(t, err)

	_, err = f.service.ActivateRental(context.Background(), created.ID, "pay-1")
	require.NoError(t, err)

	renewed, err := f.service.RenewRental(context.Background(), created.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, end.AddDate(0, 0, 3), renewed.EndAt)

	_, err = f.service.EndRental(context.Background(), created.ID)
	require.NoError(t, err)

	returned, err := f.service.ReturnRental(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RentalStatusReturned, returned.Status)
	assert.Equal(t, 1, returned.RenewedCount)

	vehicle, err := f.vehicles.FindVehicleByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusAvailable, vehicle.Status)
	assert.Empty(t, vehicle.CurrentRentalID)
}

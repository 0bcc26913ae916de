package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/vehicle-rentals/internal/models"
)

// MemoryRentalCollection is an in-memory RentalCollection for tests and
// broker-less local runs.
type MemoryRentalCollection struct {
	mu      sync.RWMutex
	rentals map[string]models.Rental
}

// NewMemoryRentalCollection creates an empty in-memory rental collection.
func NewMemoryRentalCollection() *MemoryRentalCollection {
	return &MemoryRentalCollection{
		rentals: make(map[string]models.Rental),
	}
}

// InsertRental stores a rental record.
func (c *MemoryRentalCollection) InsertRental(ctx context.Context, rental models.Rental) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rentals[rental.ID] = rental
	return nil
}

// FindRentalByID finds a rental by its ID.
func (c *MemoryRentalCollection) FindRentalByID(ctx context.Context, id string) (*models.Rental, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rental, ok := c.rentals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rental, nil
}

// UpdateRental replaces a rental by its ID.
func (c *MemoryRentalCollection) UpdateRental(ctx context.Context, id string, rental models.Rental) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rentals[id]; !ok {
		return ErrNotFound
	}
	c.rentals[id] = rental
	return nil
}

// FindActiveOrPendingByVehicle returns one pending or active rental holding
// the vehicle, or (nil, nil) when it is free.
func (c *MemoryRentalCollection) FindActiveOrPendingByVehicle(ctx context.Context, vehicleID string) (*models.Rental, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rental := range c.rentals {
		if rental.VehicleID == vehicleID && holdsVehicle(rental.Status) {
			r := rental
			return &r, nil
		}
	}
	return nil, nil
}

// FindOverlapping returns pending or active rentals for the vehicle whose
// half-open window overlaps [start, end).
func (c *MemoryRentalCollection) FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]models.Rental, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Rental
	for _, rental := range c.rentals {
		if rental.VehicleID != vehicleID || !holdsVehicle(rental.Status) {
			continue
		}
		if rental.StartAt.Before(end) && rental.EndAt.After(start) {
			out = append(out, rental)
		}
	}
	return out, nil
}

// FindRentals queries rentals with filters and pagination, newest first.
func (c *MemoryRentalCollection) FindRentals(ctx context.Context, filter RentalFilter, page, limit int) ([]models.Rental, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	c.mu.RLock()
	var matched []models.Rental
	for _, rental := range c.rentals {
		if filter.VehicleID != "" && rental.VehicleID != filter.VehicleID {
			continue
		}
		if filter.UserID != "" && rental.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && rental.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && rental.StartAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rental.StartAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, rental)
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	skip := (page - 1) * limit
	if skip >= len(matched) {
		return nil, total, nil
	}
	matched = matched[skip:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func holdsVehicle(status models.RentalStatus) bool {
	return status == models.RentalStatusPending || status == models.RentalStatusActive
}

// MemoryVehicleCollection is an in-memory VehicleCollection for tests.
type MemoryVehicleCollection struct {
	mu       sync.RWMutex
	vehicles map[string]models.Vehicle
}

// NewMemoryVehicleCollection creates an empty in-memory vehicle collection.
func NewMemoryVehicleCollection() *MemoryVehicleCollection {
	return &MemoryVehicleCollection{
		vehicles: make(map[string]models.Vehicle),
	}
}

// InsertVehicle stores a vehicle record.
func (c *MemoryVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles[vehicle.ID] = vehicle
	return nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MemoryVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vehicle, ok := c.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &vehicle, nil
}

// FindVehicleByPlate finds a vehicle by its plate number.
func (c *MemoryVehicleCollection) FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, vehicle := range c.vehicles {
		if vehicle.Plate == plate {
			v := vehicle
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateVehicle replaces a vehicle by its ID.
func (c *MemoryVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vehicles[id]; !ok {
		return ErrNotFound
	}
	c.vehicles[id] = vehicle
	return nil
}

// FindAvailableVehicles returns vehicles whose status is available,
// optionally narrowed by a case-insensitive model substring.
func (c *MemoryVehicleCollection) FindAvailableVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Vehicle
	needle := strings.ToLower(filter.Model)
	for _, vehicle := range c.vehicles {
		if vehicle.Status != models.VehicleStatusAvailable {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(vehicle.Model), needle) {
			continue
		}
		out = append(out, vehicle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

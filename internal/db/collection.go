package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/vehicle-rentals/internal/models"
)

// ErrNotFound is returned by lookups when no document matches.
var ErrNotFound = errors.New("not found")

// RentalFilter narrows rental listings.
type RentalFilter struct {
	VehicleID string
	UserID    string
	Status    models.RentalStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// VehicleFilter narrows vehicle queries. Model matches as a
// case-insensitive substring.
type VehicleFilter struct {
	Model string
}

// RentalCollection defines the interface for rental data operations.
type RentalCollection interface {
	InsertRental(ctx context.Context, rental models.Rental) error
	FindRentalByID(ctx context.Context, id string) (*models.Rental, error)
	UpdateRental(ctx context.Context, id string, rental models.Rental) error
	// FindActiveOrPendingByVehicle returns one pending or active rental for
	// the vehicle, or (nil, nil) when there is none.
	FindActiveOrPendingByVehicle(ctx context.Context, vehicleID string) (*models.Rental, error)
	// FindOverlapping returns pending or active rentals for the vehicle whose
	// window [start_at, end_at) overlaps [start, end).
	FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]models.Rental, error)
	FindRentals(ctx context.Context, filter RentalFilter, page, limit int) ([]models.Rental, int64, error)
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	FindAvailableVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error)
}

// UserCollection defines the interface for user data operations.
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

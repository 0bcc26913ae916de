package models

import (
	"time"
)

// VehicleStatus represents the availability state of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusRented      VehicleStatus = "rented"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Vehicle represents a vehicle in the rental inventory.
type Vehicle struct {
	ID              string        `bson:"_id" json:"id"`
	Plate           string        `bson:"plate" json:"plate"`
	Model           string        `bson:"model" json:"model"`
	Status          VehicleStatus `bson:"status" json:"status"`
	CurrentRentalID string        `bson:"current_rental_id,omitempty" json:"current_rental_id,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}

// IsAvailable reports whether the vehicle can be reserved. Rented and
// maintenance vehicles are not reservable.
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleStatusAvailable && v.CurrentRentalID == ""
}

// MarkAsRented flips the vehicle to rented and attaches the rental holding
// it. No prior-state validation happens here; the orchestrator only calls
// this after the availability check succeeds under the vehicle lock.
func (v *Vehicle) MarkAsRented(rentalID string) {
	v.Status = VehicleStatusRented
	v.CurrentRentalID = rentalID
}

// MarkAsAvailable returns the vehicle to the available pool.
func (v *Vehicle) MarkAsAvailable() {
	v.Status = VehicleStatusAvailable
	v.CurrentRentalID = ""
}

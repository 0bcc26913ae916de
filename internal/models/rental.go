package models

import (
	"errors"
	"time"
)

// RentalStatus represents the lifecycle state of a rental.
type RentalStatus string

const (
	RentalStatusPending  RentalStatus = "pending"
	RentalStatusActive   RentalStatus = "active"
	RentalStatusEnded    RentalStatus = "ended"
	RentalStatusCanceled RentalStatus = "canceled"
	RentalStatusReturned RentalStatus = "returned"
)

// ErrInvalidStateTransition is returned when a rental operation is attempted
// from a state that does not allow it. The rental is left unmodified.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// Rental represents a vehicle rental transaction.
type Rental struct {
	ID           string       `bson:"_id" json:"id"`
	VehicleID    string       `bson:"vehicle_id" json:"vehicle_id"`
	UserID       string       `bson:"user_id" json:"user_id"`
	Status       RentalStatus `bson:"status" json:"status"`
	StartAt      time.Time    `bson:"start_at" json:"start_at"`
	EndAt        time.Time    `bson:"end_at" json:"end_at"`
	RenewedCount int          `bson:"renewed_count" json:"renewed_count"`
	PaymentRef   string       `bson:"payment_ref,omitempty" json:"payment_ref,omitempty"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}

// IsPending reports whether the rental is waiting for payment confirmation.
func (r *Rental) IsPending() bool {
	return r.Status == RentalStatusPending
}

// IsActive reports whether the rental is currently active.
func (r *Rental) IsActive() bool {
	return r.Status == RentalStatusActive
}

// CanBeRenewed reports whether the rental may be extended.
func (r *Rental) CanBeRenewed() bool {
	return r.Status == RentalStatusActive
}

// CanBeEnded reports whether the rental may be ended.
func (r *Rental) CanBeEnded() bool {
	return r.Status == RentalStatusActive || r.Status == RentalStatusPending
}

// CanBeReturned reports whether the vehicle may be handed back.
func (r *Rental) CanBeReturned() bool {
	return r.Status == RentalStatusActive || r.Status == RentalStatusEnded
}

// Activate moves a pending rental to active.
func (r *Rental) Activate(now time.Time) error {
	if !r.IsPending() {
		return ErrInvalidStateTransition
	}
	r.Status = RentalStatusActive
	r.UpdatedAt = now
	return nil
}

// Renew extends an active rental to newEndAt and bumps the renewal counter.
// newEndAt must be strictly after the current end.
func (r *Rental) Renew(newEndAt, now time.Time) error {
	if !r.CanBeRenewed() {
		return ErrInvalidStateTransition
	}
	if !newEndAt.After(r.EndAt) {
		return ErrInvalidStateTransition
	}
	r.EndAt = newEndAt
	r.RenewedCount++
	r.UpdatedAt = now
	return nil
}

// End closes out a pending or active rental.
func (r *Rental) End(now time.Time) error {
	if !r.CanBeEnded() {
		return ErrInvalidStateTransition
	}
	r.Status = RentalStatusEnded
	r.UpdatedAt = now
	return nil
}

// MarkAsReturned records that the vehicle came back.
func (r *Rental) MarkAsReturned(now time.Time) error {
	if !r.CanBeReturned() {
		return ErrInvalidStateTransition
	}
	r.Status = RentalStatusReturned
	r.UpdatedAt = now
	return nil
}

// Cancel voids a rental. Active rentals must be ended first, not canceled.
func (r *Rental) Cancel(now time.Time) error {
	if r.IsActive() {
		return ErrInvalidStateTransition
	}
	r.Status = RentalStatusCanceled
	r.UpdatedAt = now
	return nil
}

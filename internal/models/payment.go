package models

import (
	"time"
)

// PaymentStatus represents the state of a payment charge.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment represents a payment charge created against a rental.
type Payment struct {
	ID        string        `json:"id"`
	Reference string        `json:"reference"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// IsCompleted reports whether the charge went through.
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// HasFailed reports whether the charge failed.
func (p *Payment) HasFailed() bool {
	return p.Status == PaymentStatusFailed
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/events"
	"github.com/ukydev/vehicle-rentals/internal/metrics"
	"github.com/ukydev/vehicle-rentals/internal/middleware"
	"github.com/ukydev/vehicle-rentals/internal/models"
	"github.com/ukydev/vehicle-rentals/internal/payments"
	"github.com/ukydev/vehicle-rentals/internal/rental"
)

// RentalHandler handles rental lifecycle requests. It is the use-case layer:
// it drives the transaction service, charges payments, publishes lifecycle
// events, and bumps counters. The engine itself stays free of these side
// effects.
type RentalHandler struct {
	service   *rental.TransactionService
	rentals   db.RentalCollection
	payments  payments.Gateway
	publisher events.Publisher
	metrics   *metrics.Collector
}

// NewRentalHandler creates a new rental handler.
func NewRentalHandler(service *rental.TransactionService, rentals db.RentalCollection, gateway payments.Gateway, publisher events.Publisher, collector *metrics.Collector) *RentalHandler {
	return &RentalHandler{
		service:   service,
		rentals:   rentals,
		payments:  gateway,
		publisher: publisher,
		metrics:   collector,
	}
}

// CreateRentalRequest is the payload for POST /api/rentals.
type CreateRentalRequest struct {
	VehicleID     string    `json:"vehicle_id"`
	UserID        string    `json:"user_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	PaymentAmount float64   `json:"payment_amount"`
}

// CreateRental reserves a vehicle, attempts the payment charge, and
// activates the rental on success. When the charge fails the rental stays
// pending and the vehicle stays held, leaving the caller a retry or cancel
// path.
func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req CreateRentalRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	userID := req.UserID
	if userID == "" {
		if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
			userID = claims.UserID
		}
	}

	created, err := h.service.InitiateRental(r.Context(), req.VehicleID, userID, req.StartAt, req.EndAt)
	if err != nil {
		writeRentalError(w, err)
		return
	}

	result := created
	payment, err := h.payments.CreateCharge(r.Context(), req.PaymentAmount, created.ID)
	if err != nil {
		// Rental remains pending; the vehicle stays held.
		log.WithFields(log.Fields{"rental_id": created.ID}).WithError(err).Error("Payment failed")
		h.metrics.IncPaymentAttempt("failed")
	} else {
		h.metrics.IncPaymentAttempt("success")
		activated, err := h.service.ActivateRental(r.Context(), created.ID, payment.ID)
		if err != nil {
			log.WithFields(log.Fields{"rental_id": created.ID}).WithError(err).Error("Failed to activate rental after payment")
		} else {
			result = activated
		}
	}

	h.publish(events.RentalStarted, map[string]interface{}{
		"rental_id":  result.ID,
		"vehicle_id": result.VehicleID,
		"user_id":    result.UserID,
		"status":     result.Status,
		"start_at":   result.StartAt,
		"end_at":     result.EndAt,
	})
	h.metrics.IncRentalStarted()

	writeJSON(w, http.StatusCreated, result)
}

// RenewRentalRequest is the payload for POST /api/rentals/{id}/renew.
type RenewRentalRequest struct {
	AdditionalDays int `json:"additional_days"`
}

// RenewRental extends an active rental by a number of days.
func (h *RentalHandler) RenewRental(w http.ResponseWriter, r *http.Request) {
	rentalID := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req RenewRentalRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	renewed, err := h.service.RenewRental(r.Context(), rentalID, req.AdditionalDays)
	if err != nil {
		writeRentalError(w, err)
		return
	}

	h.publish(events.RentalRenewed, map[string]interface{}{
		"rental_id":     renewed.ID,
		"vehicle_id":    renewed.VehicleID,
		"user_id":       renewed.UserID,
		"status":        renewed.Status,
		"end_at":        renewed.EndAt,
		"renewed_count": renewed.RenewedCount,
	})
	h.metrics.IncRentalRenewed()

	writeJSON(w, http.StatusOK, renewed)
}

// EndRental closes out a rental. The vehicle stays occupied until return.
func (h *RentalHandler) EndRental(w http.ResponseWriter, r *http.Request) {
	rentalID := r.PathValue("id")

	ended, err := h.service.EndRental(r.Context(), rentalID)
	if err != nil {
		writeRentalError(w, err)
		return
	}

	h.publish(events.RentalEnded, map[string]interface{}{
		"rental_id":  ended.ID,
		"vehicle_id": ended.VehicleID,
		"user_id":    ended.UserID,
		"status":     ended.Status,
	})
	h.metrics.IncRentalEnded()

	writeJSON(w, http.StatusOK, ended)
}

// ReturnRental marks the rental returned and frees the vehicle.
func (h *RentalHandler) ReturnRental(w http.ResponseWriter, r *http.Request) {
	rentalID := r.PathValue("id")

	returned, err := h.service.ReturnRental(r.Context(), rentalID)
	if err != nil {
		if returned != nil && err == rental.ErrVehicleNotReleased {
			// The rental update stands; escalate the anomaly, do not fail
			// the request.
			log.WithFields(log.Fields{
				"rental_id":  returned.ID,
				"vehicle_id": returned.VehicleID,
			}).Error("Vehicle release anomaly during return")
		} else {
			writeRentalError(w, err)
			return
		}
	}

	h.publish(events.RentalReturned, map[string]interface{}{
		"rental_id":    returned.ID,
		"vehicle_id":   returned.VehicleID,
		"user_id":      returned.UserID,
		"status":       returned.Status,
		"processed_at": time.Now(),
	})
	h.metrics.IncRentalReturned()

	writeJSON(w, http.StatusOK, returned)
}

// GetRental returns a single rental by ID.
func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rentalID := r.PathValue("id")

	found, err := h.rentals.FindRentalByID(r.Context(), rentalID)
	if err != nil {
		if err == db.ErrNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "rental not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// ListRentalsResponse is the paginated envelope for GET /api/rentals.
type ListRentalsResponse struct {
	Data       []models.Rental `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// Pagination describes the page window of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// ListRentals lists rentals with filters and pagination.
func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := db.RentalFilter{
		VehicleID: q.Get("vehicle_id"),
		UserID:    q.Get("user_id"),
		Status:    models.RentalStatus(q.Get("status")),
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndDate = &t
		}
	}

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = v
	}
	limit := 10
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v >= 1 && v <= 100 {
		limit = v
	}

	rentals, total, err := h.rentals.FindRentals(r.Context(), filter, page, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	writeJSON(w, http.StatusOK, ListRentalsResponse{
		Data: rentals,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

func (h *RentalHandler) publish(event string, payload map[string]interface{}) {
	if err := h.publisher.Publish(event, payload); err != nil {
		log.WithField("event", event).WithError(err).Error("Failed to publish event")
		return
	}
	h.metrics.IncEventPublished(event)
}

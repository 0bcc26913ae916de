package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/models"
	"github.com/ukydev/vehicle-rentals/internal/rental"
)

// VehicleHandler handles vehicle registration and availability queries.
type VehicleHandler struct {
	vehicles  db.VehicleCollection
	inventory *rental.Inventory
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, inventory *rental.Inventory) *VehicleHandler {
	return &VehicleHandler{
		vehicles:  vehicles,
		inventory: inventory,
	}
}

// RegisterVehicleRequest is the payload for POST /api/vehicles.
type RegisterVehicleRequest struct {
	Plate string `json:"plate"`
	Model string `json:"model"`
}

// RegisterVehicle adds a vehicle to the rental inventory. Fleet management
// writes through the vehicle store directly; the rental engine never creates
// vehicles.
func (h *VehicleHandler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req RegisterVehicleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Plate == "" || req.Model == "" {
		http.Error(w, "Plate and model are required", http.StatusBadRequest)
		return
	}

	// Plate is the unique business key.
	if _, err := h.vehicles.FindVehicleByPlate(r.Context(), req.Plate); err == nil {
		http.Error(w, "Plate already registered", http.StatusConflict)
		return
	}

	now := time.Now()
	vehicle := models.Vehicle{
		ID:        uuid.NewString(),
		Plate:     req.Plate,
		Model:     req.Model,
		Status:    models.VehicleStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		http.Error(w, "Failed to register vehicle", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

// AvailableVehiclesResponse is the listing variant of the availability
// endpoint.
type AvailableVehiclesResponse struct {
	Available bool             `json:"available"`
	Vehicles  []models.Vehicle `json:"vehicles"`
}

// CheckAvailability answers GET /api/vehicles/availability. With a
// vehicle_id it checks that vehicle for the window (defaults: now to
// now+24h); without one it lists available vehicles, optionally narrowed by
// model.
func (h *VehicleHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicleID := q.Get("vehicle_id")

	if vehicleID == "" {
		vehicles, err := h.inventory.QueryAvailableVehicles(r.Context(), db.VehicleFilter{Model: q.Get("model")})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if vehicles == nil {
			vehicles = []models.Vehicle{}
		}
		writeJSON(w, http.StatusOK, AvailableVehiclesResponse{
			Available: len(vehicles) > 0,
			Vehicles:  vehicles,
		})
		return
	}

	start := time.Now()
	if v := q.Get("start_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid start_at", http.StatusBadRequest)
			return
		}
		start = t
	}
	end := start.Add(24 * time.Hour)
	if v := q.Get("end_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "Invalid end_at", http.StatusBadRequest)
			return
		}
		end = t
	}

	availability, err := h.inventory.IsVehicleAvailable(r.Context(), vehicleID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

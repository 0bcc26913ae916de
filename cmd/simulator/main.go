package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle mirrors the API's vehicle payload.
type Vehicle struct {
	ID    string `json:"id"`
	Plate string `json:"plate"`
	Model string `json:"model"`
}

// Rental mirrors the API's rental payload.
type Rental struct {
	ID           string    `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	Status       string    `json:"status"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	RenewedCount int       `json:"renewed_count"`
}

var carModels = []string{"Corolla", "Civic", "Golf", "Model 3", "Leaf", "308", "Clio", "Polo", "i30", "Focus"}

var authToken string

func authorizedRequest(method, url string, body *bytes.Buffer) (*http.Response, error) {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func registerVehicle(apiURL string, n int) (*Vehicle, error) {
	payload := map[string]string{
		"plate": fmt.Sprintf("SIM-%04d", n),
		"model": carModels[rand.Intn(len(carModels))],
	}
	data, _ := json.Marshal(payload)

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/vehicles", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("vehicle registration failed with status: %d", resp.StatusCode)
	}

	var vehicle Vehicle
	if err := json.NewDecoder(resp.Body).Decode(&vehicle); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicle.ID,
		"plate":      vehicle.Plate,
		"model":      vehicle.Model,
	}).Info("Registered vehicle")

	return &vehicle, nil
}

func createRental(apiURL, vehicleID, userID string, start, end time.Time) (*Rental, int, error) {
	payload := map[string]interface{}{
		"vehicle_id":     vehicleID,
		"user_id":        userID,
		"start_at":       start.Format(time.RFC3339),
		"end_at":         end.Format(time.RFC3339),
		"payment_amount": 50 + rand.Float64()*200,
	}
	data, _ := json.Marshal(payload)

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/rentals", bytes.NewBuffer(data))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, resp.StatusCode, fmt.Errorf("rental creation failed with status: %d", resp.StatusCode)
	}

	var rental Rental
	if err := json.NewDecoder(resp.Body).Decode(&rental); err != nil {
		return nil, resp.StatusCode, err
	}
	return &rental, resp.StatusCode, nil
}

func rentalAction(apiURL, rentalID, action string, body *bytes.Buffer) error {
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/rentals/"+rentalID+"/"+action, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status: %d", action, resp.StatusCode)
	}
	return nil
}

// simulateCustomer drives full rental lifecycles against a random vehicle:
// reserve, sometimes renew, end, return. Overlap rejections are expected and
// counted, they prove the engine is refusing double-bookings.
func simulateCustomer(apiURL, userID string, vehicles []*Vehicle, cycles int) {
	for i := 0; i < cycles; i++ {
		vehicle := vehicles[rand.Intn(len(vehicles))]

		start := time.Now().Add(time.Duration(1+rand.Intn(48)) * time.Hour)
		end := start.Add(time.Duration(24+rand.Intn(96)) * time.Hour)

		rental, status, err := createRental(apiURL, vehicle.ID, userID, start, end)
		if err != nil {
			if status == http.StatusConflict {
				log.WithFields(log.Fields{"vehicle_id": vehicle.ID, "user_id": userID}).Info("Vehicle already booked, skipping")
			} else {
				log.WithError(err).Error("Failed to create rental")
			}
			continue
		}

		log.WithFields(log.Fields{
			"rental_id":  rental.ID,
			"vehicle_id": rental.VehicleID,
			"status":     rental.Status,
		}).Info("Created rental")

		if rand.Intn(2) == 0 {
			data, _ := json.Marshal(map[string]int{"additional_days": 1 + rand.Intn(7)})
			if err := rentalAction(apiURL, rental.ID, "renew", bytes.NewBuffer(data)); err != nil {
				log.WithError(err).WithField("rental_id", rental.ID).Warn("Renew failed")
			}
		}

		if err := rentalAction(apiURL, rental.ID, "end", nil); err != nil {
			log.WithError(err).WithField("rental_id", rental.ID).Warn("End failed")
		}
		if err := rentalAction(apiURL, rental.ID, "return", nil); err != nil {
			log.WithError(err).WithField("rental_id", rental.ID).Warn("Return failed")
		}

		log.WithField("rental_id", rental.ID).Info("Completed rental cycle")
	}
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	fleetSize := 5
	if v := os.Getenv("FLEET_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			fleetSize = n
		}
	}

	customers := 10
	if v := os.Getenv("SIM_CUSTOMERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			customers = n
		}
	}

	cycles := 5
	if v := os.Getenv("SIM_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cycles = n
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"customers":  customers,
		"cycles":     cycles,
		"api_url":    apiURL,
	}).Info("Starting rental simulation")

	vehicles := make([]*Vehicle, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		vehicle, err := registerVehicle(apiURL, i+1)
		if err != nil {
			log.WithError(err).Error("Failed to register vehicle")
			continue
		}
		vehicles = append(vehicles, vehicle)
	}
	if len(vehicles) == 0 {
		log.Fatal("No vehicles registered, aborting")
	}

	// More customers than vehicles keeps overlapping windows likely.
	var wg sync.WaitGroup
	for i := 0; i < customers; i++ {
		wg.Add(1)
		userID := fmt.Sprintf("sim-user-%d", i+1)
		go func() {
			defer wg.Done()
			simulateCustomer(apiURL, userID, vehicles, cycles)
		}()
	}
	wg.Wait()

	log.Info("Simulation finished")
}

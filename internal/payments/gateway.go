package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-rentals/internal/models"
)

// ErrGatewayUnavailable is returned when the gateway keeps failing after all
// retry attempts.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway is the capability to charge for a rental.
type Gateway interface {
	CreateCharge(ctx context.Context, amount float64, rentalID string) (*models.Payment, error)
}

// Client talks to the payment provider over HTTP with bearer auth and
// bounded retries.
type Client struct {
	baseURL       string
	apiKey        string
	retryAttempts int
	httpClient    *http.Client
}

// NewClient creates a payment client. retryAttempts below 1 is treated as 1.
func NewClient(baseURL, apiKey string, timeout time.Duration, retryAttempts int) *Client {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		retryAttempts: retryAttempts,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Reference string  `json:"reference"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCharge creates a charge for the rental, retrying with linear backoff
// on failure.
func (c *Client) CreateCharge(ctx context.Context, amount float64, rentalID string) (*models.Payment, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		log.WithFields(log.Fields{
			"rental_id": rentalID,
			"amount":    amount,
			"attempt":   attempt,
		}).Info("Creating payment charge")

		payment, err := c.postCharge(ctx, amount, rentalID)
		if err == nil {
			log.WithFields(log.Fields{
				"payment_id": payment.ID,
				"rental_id":  rentalID,
			}).Info("Payment charge created")
			return payment, nil
		}

		lastErr = err
		log.WithFields(log.Fields{
			"rental_id": rentalID,
			"attempt":   attempt,
		}).WithError(err).Warn("Payment charge failed")

		if attempt < c.retryAttempts {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	log.WithFields(log.Fields{"rental_id": rentalID}).WithError(lastErr).Error("Payment charge failed after retries")
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, lastErr)
}

func (c *Client) postCharge(ctx context.Context, amount float64, rentalID string) (*models.Payment, error) {
	body, err := json.Marshal(chargeRequest{
		Amount:    amount,
		Currency:  "USD",
		Reference: rentalID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("charge request failed with status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	return &models.Payment{
		ID:        out.ID,
		Reference: rentalID,
		Amount:    amount,
		Currency:  "USD",
		Status:    models.PaymentStatus(out.Status),
		CreatedAt: time.Now(),
	}, nil
}

// ConfirmCharge confirms a previously created charge. Providers that settle
// synchronously return the completed payment unchanged.
func (c *Client) ConfirmCharge(ctx context.Context, paymentID string) (*models.Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges/"+paymentID+"/confirm", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("confirm request failed with status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode confirm response: %w", err)
	}

	return &models.Payment{
		ID:     out.ID,
		Status: models.PaymentStatus(out.Status),
	}, nil
}

// GetPaymentStatus fetches the current status of a charge.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*models.Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/charges/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status request failed with status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &models.Payment{
		ID:     out.ID,
		Status: models.PaymentStatus(out.Status),
	}, nil
}

package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
)

// Collector counts rental operations, payment attempts, and published
// events. All methods are safe for concurrent use.
type Collector struct {
	rentalsStarted  atomic.Int64
	rentalsRenewed  atomic.Int64
	rentalsEnded    atomic.Int64
	rentalsReturned atomic.Int64

	mu              sync.Mutex
	paymentAttempts map[string]int64
	eventsPublished map[string]int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		paymentAttempts: make(map[string]int64),
		eventsPublished: make(map[string]int64),
	}
}

// IncRentalStarted counts a successful rental creation.
func (c *Collector) IncRentalStarted() { c.rentalsStarted.Add(1) }

// IncRentalRenewed counts a successful renewal.
func (c *Collector) IncRentalRenewed() { c.rentalsRenewed.Add(1) }

// IncRentalEnded counts a successful rental end.
func (c *Collector) IncRentalEnded() { c.rentalsEnded.Add(1) }

// IncRentalReturned counts a successful return.
func (c *Collector) IncRentalReturned() { c.rentalsReturned.Add(1) }

// IncPaymentAttempt counts a payment attempt by result ("success" or
// "failed").
func (c *Collector) IncPaymentAttempt(result string) {
	c.mu.Lock()
	c.paymentAttempts[result]++
	c.mu.Unlock()
}

// IncEventPublished counts a published event by type.
func (c *Collector) IncEventPublished(event string) {
	c.mu.Lock()
	c.eventsPublished[event]++
	c.mu.Unlock()
}

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	RentalsStarted  int64            `json:"rentals_started_total"`
	RentalsRenewed  int64            `json:"rentals_renewed_total"`
	RentalsEnded    int64            `json:"rentals_ended_total"`
	RentalsReturned int64            `json:"rentals_returned_total"`
	PaymentAttempts map[string]int64 `json:"payment_attempts_total"`
	EventsPublished map[string]int64 `json:"events_published_total"`
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		RentalsStarted:  c.rentalsStarted.Load(),
		RentalsRenewed:  c.rentalsRenewed.Load(),
		RentalsEnded:    c.rentalsEnded.Load(),
		RentalsReturned: c.rentalsReturned.Load(),
		PaymentAttempts: make(map[string]int64),
		EventsPublished: make(map[string]int64),
	}
	c.mu.Lock()
	for k, v := range c.paymentAttempts {
		snap.PaymentAttempts[k] = v
	}
	for k, v := range c.eventsPublished {
		snap.EventsPublished[k] = v
	}
	c.mu.Unlock()
	return snap
}

// Handler serves the counters as JSON.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c.Snapshot())
	})
}

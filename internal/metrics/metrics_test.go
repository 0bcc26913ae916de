package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.IncRentalStarted()
	c.IncRentalStarted()
	c.IncRentalRenewed()
	c.IncRentalEnded()
	c.IncRentalReturned()
	c.IncPaymentAttempt("success")
	c.IncPaymentAttempt("failed")
	c.IncPaymentAttempt("failed")
	c.IncEventPublished("rental.started")

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.RentalsStarted)
	assert.Equal(t, int64(1), snap.RentalsRenewed)
	assert.Equal(t, int64(1), snap.RentalsEnded)
	assert.Equal(t, int64(1), snap.RentalsReturned)
	assert.Equal(t, int64(1), snap.PaymentAttempts["success"])
	assert.Equal(t, int64(2), snap.PaymentAttempts["failed"])
	assert.Equal(t, int64(1), snap.EventsPublished["rental.started"])
}

func TestCollector_ConcurrentUse(t *testing.T) {
	c := NewCollector()

	const goroutines = 16
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncRentalStarted()
			c.IncPaymentAttempt("success")
			c.IncEventPublished("rental.started")
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(goroutines), snap.RentalsStarted)
	assert.Equal(t, int64(goroutines), snap.PaymentAttempts["success"])
	assert.Equal(t, int64(goroutines), snap.EventsPublished["rental.started"])
}

func TestCollector_SnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.IncPaymentAttempt("success")

	snap := c.Snapshot()
	snap.PaymentAttempts["success"] = 99

	assert.Equal(t, int64(1), c.Snapshot().PaymentAttempts["success"])
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.IncRentalStarted()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	c.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.RentalsStarted)
}

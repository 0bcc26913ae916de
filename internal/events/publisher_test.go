package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(RentalStarted, map[string]string{"rental_id": "r1"}))
	assert.NoError(t, p.Publish(RentalReturned, nil))
}

package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Lifecycle event names published after the corresponding operation
// succeeds.
const (
	RentalStarted  = "rental.started"
	RentalRenewed  = "rental.renewed"
	RentalEnded    = "rental.ended"
	RentalReturned = "rental.returned"
)

// Publisher announces rental lifecycle transitions. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(event string, payload interface{}) error
}

// MQTTPublisher publishes lifecycle events to an MQTT broker as JSON.
type MQTTPublisher struct {
	client mqtt.Client
	qos    byte
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, err)
	}

	log.WithField("broker", brokerURL).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client, qos: 1}, nil
}

// Publish sends the payload to the topic named after the event.
func (p *MQTTPublisher) Publish(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	token := p.client.Publish(event, p.qos, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}

	log.WithField("event", event).Debug("Published event")
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher drops events. Used in tests and broker-less runs.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(event string, payload interface{}) error {
	return nil
}

// Package events provides the real-time notification layer. Services publish
// domain events after their database work commits; connected WebSocket
// clients subscribe to topics and receive matching events as JSON frames.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Topics clients can subscribe to.
const (
	TopicBeds        = "beds"
	TopicDepartments = "departments"
	TopicPatients    = "patients"
	TopicBilling     = "billing"
)

// Event types emitted by the domain services.
const (
	TypeBedCreated        = "bed-created"
	TypeBedOccupied       = "bed-occupied"
	TypeBedReleased       = "bed-released"
	TypeBedStatusUpdated  = "bed-status-updated"
	TypeBedDeleted        = "bed-deleted"
	TypePatientAdmitted   = "patient-admitted"
	TypePatientDischarged = "patient-discharged"
	TypePatientUpdated    = "patient-updated"
	TypeDepartmentUpdated = "department-updated"
	TypeBillingUpdated    = "billing-updated"
	TypePaymentReceived   = "payment-received"
	TypeBillStatusUpdated = "bill-status-updated"
)

// Event is a single real-time notification.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an Event with the current timestamp. The payload is marshalled
// immediately so a publish failure surfaces at the call site.
func New(eventType, topic string, payload interface{}) (Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		data = b
	}
	return Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Publisher is implemented by the WebSocket hub. Services depend on this
// interface so tests can capture events without a live hub.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

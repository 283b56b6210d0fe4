// Package events publishes domain outcomes for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypePatientCreated = "patient.created"
	TypePatientReused  = "patient.reused"
)

// Event is the envelope written to the outcome topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Key       string                 `json:"-"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent stamps an event with a fresh ID and the current time. key selects
// the partition; events for the same patient share a key.
func NewEvent(eventType, source, key string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards events. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

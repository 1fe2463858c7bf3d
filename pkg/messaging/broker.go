package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published for every domain event.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Channels for domain events.
const (
	ChannelOrderEvents    = "orders.events"
	ChannelDeliveryEvents = "deliveries.events"
	ChannelPharmacyEvents = "pharmacies.events"
)

// Package messaging defines the queue abstraction lifecycle events travel
// over, with in-memory and filesystem implementations in subpackages.
package messaging

import "context"

// Vendor names a queue implementation.
type Vendor string

const (
	// VendorMemory selects the in-process channel-backed queue.
	VendorMemory Vendor = "memory"

	// VendorFS selects the filesystem-backed durable queue.
	VendorFS Vendor = "fs"
)

// Queue is an abstract message queue over any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue.
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a single delivery retrieved from a queue.
type Message[T any] interface {
	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure in processing this message.
	Nack(err error) error
}

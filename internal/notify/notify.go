// Package notify publishes "generation created" events on NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NatsNotifier publishes an events.AudioChunkCreatedEvent for every persisted
// generation. A generation is a single chunk, so PageNumber and TotalPages are 1.
type NatsNotifier struct {
	natsConnection *nats.Conn
	subject        string
	now            func() time.Time
}

// NewNatsNotifier creates a notifier publishing on subject.
func NewNatsNotifier(natsConnection *nats.Conn, subject string) *NatsNotifier {
	return &NatsNotifier{
		natsConnection: natsConnection,
		subject:        subject,
		now:            time.Now,
	}
}

// GenerationCreated marshals and publishes the event. The generation id is
// used as the workflow id so consumers can correlate it with the API response.
func (n *NatsNotifier) GenerationCreated(_ context.Context, generationID, audioPath string) error {
	event := &events.AudioChunkCreatedEvent{
		Header: events.EventHeader{
			Timestamp:  n.now().UTC(),
			WorkflowID: generationID,
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		AudioKey:   audioPath,
		PageNumber: 1,
		TotalPages: 1,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal generation event: %w", err)
	}

	err = n.natsConnection.Publish(n.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish generation event on %s: %w", n.subject, err)
	}

	return nil
}

// Noop discards notifications. It is used when NATS is not configured.
type Noop struct{}

// GenerationCreated does nothing.
func (Noop) GenerationCreated(context.Context, string, string) error {
	return nil
}

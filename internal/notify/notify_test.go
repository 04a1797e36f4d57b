// Package notify_test tests the NATS generation notifier.
package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/voice-clone/internal/notify"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func TestNatsNotifier_GenerationCreated(t *testing.T) {
	t.Parallel()

	natsConnection := createTestNatsClient(t)

	sub, err := natsConnection.SubscribeSync("generation.created")
	require.NoError(t, err)
	require.NoError(t, natsConnection.Flush())

	notifier := notify.NewNatsNotifier(natsConnection, "generation.created")

	err = notifier.GenerationCreated(context.Background(), "gen-1", "generated/abc.mp3")
	require.NoError(t, err)

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)

	var event events.AudioChunkCreatedEvent

	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "gen-1", event.Header.WorkflowID)
	assert.NotEmpty(t, event.Header.EventID)
	assert.False(t, event.Header.Timestamp.IsZero())
	assert.Equal(t, "generated/abc.mp3", event.AudioKey)
	assert.Equal(t, 1, event.PageNumber)
	assert.Equal(t, 1, event.TotalPages)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	require.NoError(t, notify.Noop{}.GenerationCreated(context.Background(), "id", "generated/x.mp3"))
}

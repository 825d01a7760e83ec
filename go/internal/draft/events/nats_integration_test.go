//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNATSPublisherIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcnats.Run(ctx, "nats:2.10-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server is ready").WithStartupTimeout(45*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	nc, js, err := ConnectNATS(url)
	require.NoError(t, err)
	defer nc.Close()

	cfg := DefaultNATSConfig()
	pub := NewNATSPublisher(js, cfg)
	require.NoError(t, pub.EnsureStream(ctx))

	ev := NewDomainEvent(EventTypeDraftCompleted, "d1", time.Now().UTC(), DraftCompletedPayload{DraftID: "d1", TotalPicks: 4})
	require.NoError(t, pub.Handle(ctx, ev))
	// Same event id: deduplicated by the stream.
	require.NoError(t, pub.Handle(ctx, ev))

	stream, err := js.Stream(ctx, cfg.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)

	consumer, err := stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: pub.Subject(ev),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(t, err)
	msg, err := consumer.Next(jetstream.FetchMaxWait(5 * time.Second))
	require.NoError(t, err)
	require.NoError(t, msg.Ack())

	got, err := UnmarshalEnvelope(msg.Data())
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, DraftCompletedPayload{DraftID: "d1", TotalPicks: 4}, got.Payload)
}

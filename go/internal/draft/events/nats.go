package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// NATSConfig holds the JetStream settings for the event bus.
type NATSConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxAge        time.Duration
}

// DefaultNATSConfig returns the stream layout the draft services share.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		StreamName:    "DRAFT_EVENTS",
		SubjectPrefix: "draft.events",
		MaxAge:        7 * 24 * time.Hour,
	}
}

// ConnectNATS creates a NATS connection with JetStream.
func ConnectNATS(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name("draftroom"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

// NATSPublisher publishes domain events to a JetStream stream.
type NATSPublisher struct {
	js     jetstream.JetStream
	config NATSConfig
}

func NewNATSPublisher(js jetstream.JetStream, cfg NATSConfig) *NATSPublisher {
	return &NATSPublisher{js: js, config: cfg}
}

// EnsureStream creates or updates the stream that captures every draft subject.
func (p *NATSPublisher) EnsureStream(ctx context.Context) error {
	streamCfg := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Draft room domain events",
		Subjects:    []string{p.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      p.config.MaxAge,
		Duplicates:  2 * time.Minute,
	}

	stream, err := p.js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		return fmt.Errorf("create or update stream %s: %w", p.config.StreamName, err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("stream info: %w", err)
	}
	log.Info().
		Str("stream", info.Config.Name).
		Uint64("messages", info.State.Msgs).
		Msg("JetStream stream ready")
	return nil
}

// Subject is the bus subject for an event.
func (p *NATSPublisher) Subject(event DomainEvent) string {
	return fmt.Sprintf("%s.%s.%s", p.config.SubjectPrefix, event.DraftID, event.Type)
}

// Handle implements Handler. The event id doubles as the JetStream message id
// so retried publishes are deduplicated by the server.
func (p *NATSPublisher) Handle(ctx context.Context, event DomainEvent) error {
	data, err := event.MarshalEnvelope()
	if err != nil {
		return err
	}

	subject := p.Subject(event)
	ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Str("stream", ack.Stream).
		Uint64("seq", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("published domain event")
	return nil
}

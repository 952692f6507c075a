package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ForwarderConfig wires a Forwarder to a Kafka cluster.
type ForwarderConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Forwarder bridges bus events onto a Kafka topic so other systems can
// consume the runtime's domain events. Production is asynchronous; delivery
// failures are logged, never surfaced to publishers.
type Forwarder struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewForwarder connects to the cluster and ensures the topic exists.
func NewForwarder(ctx context.Context, cfg ForwarderConfig, logger *slog.Logger) (*Forwarder, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("eventbus: forwarder requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("eventbus: forwarder requires a topic")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "paygrid-event-forwarder"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	if err := ensureTopic(ctx, client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Forwarder{client: client, topic: cfg.Topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	responses, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %q: %w", topic, response.Err)
		}
	}
	return nil
}

// Attach subscribes the forwarder to the given event types on the bus.
func (f *Forwarder) Attach(bus *Bus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, f.Forward)
	}
}

// Forward is a bus Handler that produces the event as a JSON record keyed by
// event type.
func (f *Forwarder) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", event.Type, err)
	}

	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(event.Type),
		Value: payload,
	}
	f.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			f.logger.Warn("event delivery to kafka failed",
				"event_type", event.Type,
				"topic", f.topic,
				"error", err,
			)
		}
	})
	return nil
}

// Close drains buffered records and releases the client.
func (f *Forwarder) Close(ctx context.Context) error {
	defer f.client.Close()
	if err := f.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	return nil
}

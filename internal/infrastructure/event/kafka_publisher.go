package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Kafka message header names
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
	HeaderTenantID  = "tenant_id"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events to a single topic. Messages are keyed
// by aggregate id so every event of one order or product lands on the same
// partition in commit order.
type KafkaPublisher struct {
	writer     MessageWriter
	serializer *EventSerializer
	timeout    time.Duration
	logger     *zap.Logger
}

// NewKafkaPublisher creates a publisher for cfg.Topic on cfg.Brokers
func NewKafkaPublisher(cfg config.KafkaConfig, serializer *EventSerializer, logger *zap.Logger) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
	return NewKafkaPublisherWithWriter(writer, serializer, cfg.WriteTimeout, logger), nil
}

// NewKafkaPublisherWithWriter creates a publisher on top of an existing writer
func NewKafkaPublisherWithWriter(writer MessageWriter, serializer *EventSerializer, timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer:     writer,
		serializer: serializer,
		timeout:    timeout,
		logger:     logger.Named("kafka_publisher"),
	}
}

// Publish writes events in one batch
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msg, err := p.toMessage(ctx, evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events to kafka: %w", len(msgs), err)
	}

	p.logger.Debug("events published", zap.Int("count", len(msgs)))
	return nil
}

// Close flushes pending writes and releases the connection
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) toMessage(ctx context.Context, evt shared.DomainEvent) (kafka.Message, error) {
	value, err := p.serializer.Serialize(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	carrier := headerCarrier{
		{Key: HeaderEventType, Value: []byte(evt.EventType())},
		{Key: HeaderEventID, Value: []byte(evt.EventID().String())},
		{Key: HeaderTenantID, Value: []byte(evt.TenantID().String())},
	}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	return kafka.Message{
		Key:     []byte(evt.AggregateID().String()),
		Value:   value,
		Headers: carrier,
		Time:    evt.OccurredAt(),
	}, nil
}

// headerCarrier exposes kafka headers to the otel propagator
type headerCarrier []kafka.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(*c))
	for i, h := range *c {
		keys[i] = h.Key
	}
	return keys
}

var (
	_ shared.EventPublisher      = (*KafkaPublisher)(nil)
	_ propagation.TextMapCarrier = (*headerCarrier)(nil)
)

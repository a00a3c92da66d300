// Package consumer reads booking events from Kafka, de-duplicates them
// through the inbox and hands each new event to a Handler.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ybieul/saas-barbearia/libs/kafkax"
	otelx "github.com/ybieul/saas-barbearia/libs/otel"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox records which events a consumer has already handled.
type Inbox interface {
	// Claim returns false when the event was seen before.
	Claim(ctx context.Context, consumer, eventID, eventType string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers string
	GroupID string
	Topics  []string
}

type Consumer struct {
	reader  messageReader
	name    string
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
	tracer  trace.Tracer
	backoff time.Duration
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkax.SplitBrokers(cfg.Brokers),
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return newConsumer(reader, cfg.GroupID, logger, inbox, handler)
}

func newConsumer(reader messageReader, name string, logger *slog.Logger, inbox Inbox, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		name:    name,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
		tracer:  otelx.Tracer("notification-service/consumer"),
		backoff: time.Second,
	}
}

// Run consumes until ctx is cancelled. Offsets are committed after each
// message is handled, so a crash re-delivers at most the in-flight message.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		c.process(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit error", "err", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	meta := kafkax.ExtractEventMeta(msg)
	ctx, span := c.tracer.Start(kafkax.ExtractTraceContext(ctx, msg), "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("event_id", meta.EventID),
			attribute.String("tenant_id", meta.TenantID),
		),
	)
	defer span.End()

	fresh, err := c.inbox.Claim(ctx, c.name, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox claim failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox claim failed")
		return
	}
	if !fresh {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID, "tenant_id", meta.TenantID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		if err := c.inbox.Release(ctx, c.name, meta.EventID); err != nil {
			c.logger.Error("inbox release failed", "err", err, "event_id", meta.EventID)
		}
	}
}

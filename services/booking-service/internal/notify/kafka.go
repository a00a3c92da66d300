package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ybieul/saas-barbearia/libs/kafkax"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher writes each event to the topic named by its type, keyed by
// appointment so per-appointment order is kept.
type KafkaDispatcher struct {
	writer messageWriter
}

type KafkaConfig struct {
	Brokers      string
	WriteTimeout time.Duration
}

func NewKafkaDispatcher(cfg KafkaConfig) (*KafkaDispatcher, error) {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("notify: no kafka brokers configured")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
	})
	return &KafkaDispatcher{writer: w}, nil
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, evt Event) error {
	if evt.Type == "" || evt.ID == "" {
		return errors.New("notify: event id and type are required")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Topic:   evt.Type,
		Key:     []byte(evt.AppointmentID),
		Value:   payload,
		Headers: kafkax.EventMeta{EventID: evt.ID, EventType: evt.Type, TenantID: evt.TenantID}.Headers(),
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify: write %s: %w", evt.Type, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

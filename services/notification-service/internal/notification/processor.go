package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/ybieul/saas-barbearia/services/notification-service/internal/storage"
	"github.com/ybieul/saas-barbearia/services/notification-service/internal/whatsapp"
)

const channelWhatsApp = "whatsapp"

// Log persists the outcome of each notification.
type Log interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Processor struct {
	sender whatsapp.Sender
	log    Log
	logger *slog.Logger
}

func NewProcessor(sender whatsapp.Sender, log Log, logger *slog.Logger) *Processor {
	return &Processor{sender: sender, log: log, logger: logger}
}

// Handle processes one Kafka message. Malformed events are dropped; only a
// failure to persist the outcome is returned so the inbox claim is released.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	evt, err := Decode(msg.Value)
	if err != nil {
		p.logger.ErrorContext(ctx, "dropping event", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.Type == "" {
		evt.Type = msg.Topic
	}

	n := storage.Notification{
		EventID:       evt.ID,
		TenantID:      evt.TenantID,
		AppointmentID: evt.AppointmentID,
		Channel:       channelWhatsApp,
		Recipient:     whatsapp.Normalize(evt.ClientPhone),
	}
	body, ok := Render(evt)
	switch {
	case !ok:
		n.Status, n.Error = storage.StatusSkipped, "no message for "+evt.Type+" "+evt.Status
	case n.Recipient == "":
		n.Body = body
		n.Status, n.Error = storage.StatusSkipped, "client has no phone"
	default:
		n.Body = body
		n.Status = storage.StatusSent
		if err := p.sender.Send(ctx, n.Recipient, body); err != nil {
			n.Status, n.Error = storage.StatusFailed, err.Error()
			p.logger.ErrorContext(ctx, "whatsapp send failed", "err", err, "appointment_id", evt.AppointmentID)
		}
	}

	if err := p.log.Insert(ctx, n); err != nil {
		return errors.Join(errors.New("persist notification"), err)
	}
	p.logger.InfoContext(ctx, "notification processed",
		"event_id", evt.ID,
		"appointment_id", evt.AppointmentID,
		"status", n.Status,
		"provider", p.sender.ProviderID(),
	)
	return nil
}

package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	headerEventID   = "event_id"
	headerEventType = "event_type"
	headerTenantID  = "tenant_id"
)

// EventMeta travels in message headers so consumers can de-duplicate and
// route without decoding the payload.
type EventMeta struct {
	EventID   string
	EventType string
	TenantID  string
}

// ExtractEventMeta reads the headers written by Headers. Messages from older
// producers fall back to the key as id and the topic as type.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   HeaderValue(msg.Headers, headerEventID),
		EventType: HeaderValue(msg.Headers, headerEventType),
		TenantID:  HeaderValue(msg.Headers, headerTenantID),
	}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

func (m EventMeta) Headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: headerEventID, Value: []byte(m.EventID)},
		{Key: headerEventType, Value: []byte(m.EventType)},
	}
	if m.TenantID != "" {
		headers = append(headers, kafka.Header{Key: headerTenantID, Value: []byte(m.TenantID)})
	}
	return headers
}

// HeaderValue returns the first header named key.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Package whatsapp delivers text messages to clients.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

type CloudConfig struct {
	// BaseURL is the Graph API root, e.g. https://graph.facebook.com/v19.0.
	BaseURL       string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
}

// CloudSender posts text messages in the WhatsApp Cloud API format.
type CloudSender struct {
	url   string
	token string
	http  *http.Client
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func NewCloudSender(cfg CloudConfig) (*CloudSender, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" || strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("whatsapp: base url and phone number id are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &CloudSender{
		url:   base + "/" + strings.TrimSpace(cfg.PhoneNumberID) + "/messages",
		token: strings.TrimSpace(cfg.Token),
		http:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *CloudSender) ProviderID() string {
	return "whatsapp-cloud"
}

func (s *CloudSender) Send(ctx context.Context, to string, body string) error {
	recipient := Normalize(to)
	if recipient == "" {
		return fmt.Errorf("whatsapp: invalid recipient %q", to)
	}
	msg := textMessage{MessagingProduct: "whatsapp", To: recipient, Type: "text"}
	msg.Text.Body = body
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// Normalize keeps the digits of a phone number, e.g. "+55 (11) 99999-0000"
// becomes "5511999990000".
func Normalize(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "whatsapp-noop"
}

func (s *NoopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}

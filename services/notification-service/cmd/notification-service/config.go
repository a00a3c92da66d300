package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ybieul/saas-barbearia/libs/config"
)

type appConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"notification-service"`
	Port        string `env:"PORT" envDefault:"8085"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	KafkaBrokers string   `env:"KAFKA_BROKERS,required"`
	GroupID      string   `env:"KAFKA_GROUP_ID" envDefault:"notification-service"`
	Topics       []string `env:"KAFKA_CONSUME_TOPICS" envSeparator:"," envDefault:"booking.appointment.booked.v1,booking.appointment.status_changed.v1"`

	// Provider is "cloud" or "noop".
	Provider      string        `env:"WHATSAPP_PROVIDER" envDefault:"noop"`
	BaseURL       string        `env:"WHATSAPP_BASE_URL" envDefault:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string        `env:"WHATSAPP_PHONE_NUMBER_ID"`
	Token         string        `env:"WHATSAPP_TOKEN"`
	SendTimeout   time.Duration `env:"WHATSAPP_TIMEOUT" envDefault:"5s"`
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case "noop":
	case "cloud":
		if cfg.PhoneNumberID == "" || cfg.Token == "" {
			return cfg, fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_TOKEN are required for the cloud provider")
		}
	default:
		return cfg, fmt.Errorf("unknown WHATSAPP_PROVIDER %q", cfg.Provider)
	}
	return cfg, nil
}

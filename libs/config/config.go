// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Parse fills a struct from `env:"..."` tags. Nested structs are walked and
// `envDefault` values apply when a variable is unset.
func Parse(dst any) error {
	if err := env.Parse(dst); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Location loads an IANA zone. An empty name is an error: callers must never
// fall back to the host zone.
func Location(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port    string        `env:"SAMPLE_PORT" envDefault:"8083"`
	Step    time.Duration `env:"SAMPLE_STEP" envDefault:"30m"`
	Brokers []string      `env:"SAMPLE_BROKERS" envSeparator:","`
	Kafka   struct {
		Enabled bool `env:"SAMPLE_KAFKA_ENABLED"`
	}
}

func TestParseAppliesDefaultsAndOverrides(t *testing.T) {
	t.Setenv("SAMPLE_STEP", "15m")
	t.Setenv("SAMPLE_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SAMPLE_KAFKA_ENABLED", "true")

	var cfg sampleConfig
	require.NoError(t, Parse(&cfg))
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.Step)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("SAMPLE_STEP", "soon")
	var cfg sampleConfig
	assert.Error(t, Parse(&cfg))
}

func TestLocationNeverDefaultsToHost(t *testing.T) {
	_, err := Location("")
	assert.Error(t, err)

	loc, err := Location("America/Sao_Paulo")
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

// Package config loads and validates the tunable parameters for the rdtsim
// demo harness: timeout overrides and the simulated channel's
// impairment rates.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds one simulation run's tunables, validated against the
// protocol's structural constraints (§6 of the core specification).
type Config struct {
	SenderTimeout time.Duration `validate:"gt=0"`
	NakTimeout    time.Duration `validate:"ltfield=SenderTimeout"`
	DropRate      float64       `validate:"gte=0,lte=1"`
	CorruptRate   float64       `validate:"gte=0,lte=1"`
	DelayMaxMS    int           `validate:"gte=0"`
	RunID         string        `validate:"required"`
}

// Load reads overrides from a .env file (if present) and the environment,
// falls back to the package defaults, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}

	cfg := &Config{
		SenderTimeout: durationMS("RDTSIM_SENDER_TIMEOUT_MS", 1000),
		NakTimeout:    durationMS("RDTSIM_NAK_TIMEOUT_MS", 300),
		DropRate:      floatEnv("RDTSIM_DROP_RATE", 0),
		CorruptRate:   floatEnv("RDTSIM_CORRUPT_RATE", 0),
		DelayMaxMS:    intEnv("RDTSIM_DELAY_MAX_MS", 0),
		RunID:         uuid.New().String(),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid rdtsim configuration")
	}
	return cfg, nil
}

func durationMS(key string, fallback int) time.Duration {
	return time.Duration(intEnv(key, fallback)) * time.Millisecond
}

func intEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

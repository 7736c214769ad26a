package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between deployments (store path, etc.)
// - default: Values common across all deployments (loan period, fine rate, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Store   StoreConfig
	Lending LendingConfig
	Log     LogConfig
}

type StoreConfig struct {
	// Backend selects the persistence collaborator: "sqlite" or "memory".
	Backend string `envconfig:"LIBCIRC_STORE_BACKEND" default:"sqlite"`
	Path    string `envconfig:"LIBCIRC_STORE_PATH" default:"libcirc.db"`
}

type LendingConfig struct {
	LoanPeriodDays int   `envconfig:"LIBCIRC_LOAN_PERIOD_DAYS" default:"14"`
	DailyFineCents int64 `envconfig:"LIBCIRC_DAILY_FINE_CENTS" default:"25"`
}

type LogConfig struct {
	Level string `envconfig:"LIBCIRC_LOG_LEVEL" default:"info"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend: "memory",
			Path:    "",
		},
		Lending: LendingConfig{
			LoanPeriodDays: 14,
			DailyFineCents: 25,
		},
		Log: LogConfig{
			Level: "error", // Error level only for tests
		},
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"DEBUG"`

	// Maximum reward accepted by strict-mode validation, per opportunity type.
	CWUMaxBudget float64 `env:"CWU_MAX_BUDGET" envDefault:"70000"`
	SWUMaxBudget float64 `env:"SWU_MAX_BUDGET" envDefault:"2000000"`

	// Minimum interval between closing-hook scans, as a Go duration string
	// ("30s", "5m"). Polls inside the window are coalesced into a no-op.
	HookThrottle time.Duration `env:"HOOK_THROTTLE" envDefault:"5m"`

	PostgresConfig
}

func NewConfig() (*Config, error) {
	config := &Config{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewConfig: %w", err)
	}
	return config, err
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://test:test@db:5432/test?sslmode=disable"`
	AutoMigrateUp   string `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown string `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for staking API acceptance tests
type Config struct {
	BaseURL     string        `env:"STAKINGAPI_TEST_BASE_URL" envDefault:"http://localhost:8080"`
	APIKey      string        `env:"STAKINGAPI_TEST_API_KEY"`
	Contract    string        `env:"STAKINGAPI_TEST_CONTRACT" envDefault:"everstake.poolv1.near"`
	HTTPTimeout time.Duration `env:"STAKINGAPI_TEST_HTTP_TIMEOUT" envDefault:"30s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}

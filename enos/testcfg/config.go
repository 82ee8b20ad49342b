package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for end-to-end aggregation runs
// NOTE: the window and pool list are narrowed so a run finishes in seconds
type Config struct {
	APIURL            string        `env:"ENOS_TEST_API_URL" envDefault:"http://localhost:8080"`
	APIKey            string        `env:"ENOS_TEST_API_KEY"`
	HttpClientTimeout time.Duration `env:"ENOS_TEST_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	Contracts         []string      `env:"ENOS_TEST_CONTRACTS" envDefault:"everstake.poolv1.near,meta-pool.near"`
	StartTimestamp    int64         `env:"ENOS_TEST_START_TIMESTAMP" envDefault:"1698807600"`
	EndTimestamp      int64         `env:"ENOS_TEST_END_TIMESTAMP" envDefault:"1698980400"` // two days
	Pause             time.Duration `env:"ENOS_TEST_PAUSE" envDefault:"10ms"`               // vs 75ms in production
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

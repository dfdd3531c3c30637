package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	NetworkFile string   `env:"GM_NETWORK_FILE"`
	RPCURLs     []string `env:"GM_RPC_URLS" envSeparator:","`
	PrivateKey  string   `env:"GM_PRIVATE_KEY"`
	Timezone    string   `env:"GM_TIMEZONE" envDefault:"Local"`

	PollInterval   time.Duration `env:"GM_POLL_INTERVAL" envDefault:"10s"`
	ChunkSize      uint64        `env:"GM_CHUNK_SIZE" envDefault:"10000"`
	ProbeTimeout   time.Duration `env:"GM_PROBE_TIMEOUT" envDefault:"5s"`
	ConfirmTimeout time.Duration `env:"GM_CONFIRM_TIMEOUT" envDefault:"60s"`

	// The terminal belongs to the UI, so logs go to a file.
	LogFile  string `env:"GM_TUI_LOG_FILE" envDefault:"gmtea-tui.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

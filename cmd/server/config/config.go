package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	// Network configuration
	NetworkFile string   `env:"GM_NETWORK_FILE"`
	RPCURLs     []string `env:"GM_RPC_URLS" envSeparator:","`
	// PrivateKey signs gm() transactions. Without it the send button reports a missing wallet.
	PrivateKey string `env:"GM_PRIVATE_KEY"`
	// Timezone decides what "today" means for the daily users counter
	Timezone string `env:"GM_TIMEZONE" envDefault:"Local"`

	// Tracker configuration
	PollInterval time.Duration `env:"GM_POLL_INTERVAL" envDefault:"10s"`
	ChunkSize    uint64        `env:"GM_CHUNK_SIZE" envDefault:"10000"`
	ProbeTimeout time.Duration `env:"GM_PROBE_TIMEOUT" envDefault:"5s"`

	// Sender configuration
	ConfirmTimeout time.Duration `env:"GM_CONFIRM_TIMEOUT" envDefault:"60s"`

	// DatabaseURL enables PostgreSQL history. Empty keeps snapshots in memory.
	DatabaseURL string `env:"GM_DATABASE_URL"`
	HistorySize int    `env:"GM_HISTORY_SIZE" envDefault:"1440"`

	// HTTP configuration
	HTTPHost string `env:"GM_HTTP_HOST" envDefault:"localhost"`
	HTTPPort string `env:"GM_HTTP_PORT" envDefault:"8080"`

	// Logging configuration
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

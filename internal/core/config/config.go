package config

import (
	"time"

	"github.com/aqslabs/forwarder/internal/infra/storage"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig           `yaml:"server"`
	Logging  LoggingConfig          `yaml:"logging"`
	Agent    AgentConfig            `yaml:"agent"`
	Horizon  HorizonConfig          `yaml:"horizon"`
	Cursor   CursorConfig           `yaml:"cursor"`
	Redis    storage.RedisConfig    `yaml:"redis"`
	Database storage.PostgresConfig `yaml:"database"`
}

// ServerConfig holds the ops HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// AgentConfig holds the forwarding agent's settings.
type AgentConfig struct {
	DistributorSecretKey string `yaml:"distributor_secret_key"` // required
	ReceiverAddress      string `yaml:"receiver_address"`       // required

	SendFraction  string        `yaml:"send_fraction"`  // decimal string, e.g. "0.25"
	MinIncoming   string        `yaml:"min_incoming"`   // minimum qualifying XLM amount
	FeeFloor      int64         `yaml:"fee_floor"`      // starting fee per op, stroops
	FeeCap        int64         `yaml:"fee_cap"`        // fee escalation bound, stroops
	SubmitTimeout time.Duration `yaml:"submit_timeout"` // transaction timebounds
	MaxAttempts   int           `yaml:"max_attempts"`   // per-forward retry budget
	LogDir        string        `yaml:"log_dir"`        // result artifact directory
}

// HorizonConfig holds settings for the Horizon endpoint.
type HorizonConfig struct {
	URL               string        `yaml:"url"`
	NetworkPassphrase string        `yaml:"network_passphrase"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CursorConfig selects the cursor store backend.
type CursorConfig struct {
	Backend string `yaml:"backend"` // file, redis, postgres
	Path    string `yaml:"path"`    // file backend only
}

// Cursor backends.
const (
	CursorBackendFile     = "file"
	CursorBackendRedis    = "redis"
	CursorBackendPostgres = "postgres"
)

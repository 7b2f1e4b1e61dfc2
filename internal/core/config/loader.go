package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. Environment variables in the
// file content are expanded first, which is how the secret key and receiver
// address come in without living on disk.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Agent.SendFraction == "" {
		cfg.Agent.SendFraction = "0.25"
	}
	if cfg.Agent.MinIncoming == "" {
		cfg.Agent.MinIncoming = "0"
	}
	if cfg.Agent.FeeFloor == 0 {
		cfg.Agent.FeeFloor = 100
	}
	if cfg.Agent.FeeCap == 0 {
		cfg.Agent.FeeCap = 2000
	}
	if cfg.Agent.SubmitTimeout == 0 {
		cfg.Agent.SubmitTimeout = 60 * time.Second
	}
	if cfg.Agent.MaxAttempts == 0 {
		cfg.Agent.MaxAttempts = 10
	}
	if cfg.Agent.LogDir == "" {
		cfg.Agent.LogDir = "logs"
	}
	if cfg.Horizon.URL == "" {
		cfg.Horizon.URL = "https://horizon.stellar.org"
	}
	if cfg.Horizon.Timeout == 0 {
		cfg.Horizon.Timeout = 10 * time.Second
	}
	if cfg.Cursor.Backend == "" {
		cfg.Cursor.Backend = CursorBackendFile
	}
	if cfg.Cursor.Path == "" {
		cfg.Cursor.Path = "cursor.txt"
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Agent.DistributorSecretKey == "" {
		return fmt.Errorf("DISTRIBUTOR_SECRET_KEY is not set")
	}
	if cfg.Agent.ReceiverAddress == "" {
		return fmt.Errorf("RECEIVER_ADDRESS is not set")
	}

	switch cfg.Cursor.Backend {
	case CursorBackendFile, CursorBackendRedis, CursorBackendPostgres:
	default:
		return fmt.Errorf("unknown cursor backend %q", cfg.Cursor.Backend)
	}

	if cfg.Cursor.Backend == CursorBackendRedis && cfg.Redis.URL == "" {
		return fmt.Errorf("cursor backend is redis but redis.url is not set")
	}
	if cfg.Cursor.Backend == CursorBackendPostgres && cfg.Database.URL == "" {
		return fmt.Errorf("cursor backend is postgres but database.url is not set")
	}

	return nil
}

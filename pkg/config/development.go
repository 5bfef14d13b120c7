package config

import "time"

func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
}

func loadTestConfig(cfg *Config) {
	cfg.JournalPath = ":memory:"
	cfg.RateLimit = 0
	cfg.MaxRetries = 0
	cfg.RequestTimeout = 2 * time.Second
	cfg.DatabaseConnectRetryCount = 1
	cfg.DatabaseConnectRetryDelay = 0
}

func loadProductionConfig(_ *Config) {}

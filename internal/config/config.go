// Package config содержит логику чтения конфигурации сервиса бургерной.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса и клиента бургерной.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	SecretKey   string `env:"SECRET_KEY"`
	APIAddress  string `env:"API_ADDRESS"`
	TokensFile  string `env:"TOKENS_FILE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envSecretKey := cfg.SecretKey
	envAPIAddress := cfg.APIAddress
	envTokensFile := cfg.TokensFile

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SecretKey, "s", "", "secret key for access token signing")
	flag.StringVar(&cfg.APIAddress, "r", "http://localhost:8080", "burger API address for the client")
	flag.StringVar(&cfg.TokensFile, "t", "", "file for the persisted refresh token")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envSecretKey != "" {
		cfg.SecretKey = envSecretKey
	}
	if envAPIAddress != "" {
		cfg.APIAddress = envAPIAddress
	}
	if envTokensFile != "" {
		cfg.TokensFile = envTokensFile
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

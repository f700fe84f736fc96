// Package config loads process configuration from the environment, the way
// the original service's config.rs does: an optional .env file is loaded
// best-effort, then a handful of environment variables are read with the
// empty string treated as "absent".
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is immutable after Load and safe to share by value.
type Config struct {
	Port         uint16
	ForkURL      string // empty means unset; a configured override always wins (SPEC_FULL.md §4.1)
	EtherscanKey string // empty means unset
	APIKey       string // empty means unset; gates every /api/v1 route when non-empty
}

// Load reads PORT, FORK_URL, ETHERSCAN_KEY and API_KEY from the environment.
// It mirrors dotenvy::dotenv().ok() by loading a local .env file if present
// and ignoring the error if it is not.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (Config, error) {
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("PORT must be a valid u16: %w", err)
	}

	return Config{
		Port:         uint16(port),
		ForkURL:      os.Getenv("FORK_URL"),
		EtherscanKey: os.Getenv("ETHERSCAN_KEY"),
		APIKey:       os.Getenv("API_KEY"),
	}, nil
}

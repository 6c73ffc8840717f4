package config

import (
	"os"
	"time"
)

// parseEnv overlays SESSIONKEEPER_ADDR and SESSIONKEEPER_TIMEOUT (a Go
// duration such as "5s"). Malformed durations are ignored.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv("SESSIONKEEPER_ADDR"); ok && v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := os.LookupEnv("SESSIONKEEPER_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
}

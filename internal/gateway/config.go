package gateway

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings for the gateway.
//
// Fields:
//   - ListenAddr: HTTP bind address.
//   - IssuerAddr: host:port of the session service gRPC endpoint.
//   - RedisAddr / RedisPassword: claims cache location; empty keeps the cache
//     in process.
//   - ClaimsCacheWindow: how long a validated identity is trusted without
//     asking the issuer again.
//   - RequestTimeout: upper bound for one issuer or cache round trip.
type Config struct {
	ListenAddr        string
	IssuerAddr        string
	RedisAddr         string
	RedisPassword     string
	ClaimsCacheWindow time.Duration
	RequestTimeout    time.Duration
	LogLevel          string
}

func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8090"
	c.IssuerAddr = "127.0.0.1:50051"
	c.ClaimsCacheWindow = 30 * time.Second
	c.RequestTimeout = 3 * time.Second
	c.LogLevel = "info"
}

func (c *Config) Validate() error {
	var errs []error
	if c.IssuerAddr == "" {
		errs = append(errs, errors.New("issuer address must be set"))
	}
	if c.ClaimsCacheWindow <= 0 {
		errs = append(errs, errors.New("claims cache window must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}

// parseEnv overlays GATEWAY_ADDR, GATEWAY_ISSUER_ADDR, GATEWAY_REDIS_ADDR,
// GATEWAY_REDIS_PASSWORD, GATEWAY_CLAIMS_WINDOW and GATEWAY_TIMEOUT (Go
// durations) and LOG_LEVEL. Malformed durations are ignored.
func parseEnv(cfg *Config) {
	lookupString(&cfg.ListenAddr, "GATEWAY_ADDR")
	lookupString(&cfg.IssuerAddr, "GATEWAY_ISSUER_ADDR")
	lookupString(&cfg.RedisAddr, "GATEWAY_REDIS_ADDR")
	lookupString(&cfg.RedisPassword, "GATEWAY_REDIS_PASSWORD")
	lookupString(&cfg.LogLevel, "LOG_LEVEL")
	lookupDuration(&cfg.ClaimsCacheWindow, "GATEWAY_CLAIMS_WINDOW")
	lookupDuration(&cfg.RequestTimeout, "GATEWAY_TIMEOUT")
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

// LoadConfig applies defaults, then the environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	return cfg
}

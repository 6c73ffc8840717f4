package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads a dotenv file (the -e/-env-file flag, or ./.env when it
// exists) into the process environment and overlays the variables below.
// Variables already set in the process environment win over the file.
//
//	GRPC_ADDR, HTTP_ADDR, DATABASE_DSN, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
//	JWT_KEY, JWT_ISSUER, JWT_AUDIENCE, JWT_ACCESS_TOKEN_MINUTES,
//	JWT_REFRESH_TOKEN_DAYS, LOG_LEVEL
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	lookupString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	lookupString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	lookupString(&config.DatabaseDSN, "DATABASE_DSN")
	lookupString(&config.RedisAddr, "REDIS_ADDR")
	lookupString(&config.RedisPassword, "REDIS_PASSWORD")
	lookupString(&config.SecretKey, "JWT_KEY")
	lookupString(&config.Issuer, "JWT_ISSUER")
	lookupString(&config.Audience, "JWT_AUDIENCE")
	lookupString(&config.LogLevel, "LOG_LEVEL")

	if v, ok := lookupInt("REDIS_DB"); ok {
		config.RedisDB = v
	}
	if v, ok := lookupInt("JWT_ACCESS_TOKEN_MINUTES"); ok {
		config.AccessTokenValidityDuration = time.Duration(v) * time.Minute
	}
	if v, ok := lookupInt("JWT_REFRESH_TOKEN_DAYS"); ok {
		config.RefreshTokenValidityDuration = time.Duration(v) * 24 * time.Hour
	}
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	return n, true
}

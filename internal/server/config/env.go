package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables recognised by parseEnv.
const (
	envAddr          = "EXPENSES_HTTP_ADDR"
	envDatabaseDSN   = "EXPENSES_DATABASE_DSN"
	envSecretKey     = "EXPENSES_JWT_SECRET"
	envIssuer        = "EXPENSES_JWT_ISSUER"
	envAudience      = "EXPENSES_JWT_AUDIENCE"
	envTokenTTL      = "EXPENSES_JWT_TTL"
	envBcryptCost    = "EXPENSES_BCRYPT_COST"
	envRedisAddr     = "EXPENSES_REDIS_ADDR"
	envRedisPassword = "EXPENSES_REDIS_PASSWORD"
	envRedisDB       = "EXPENSES_REDIS_DB"
	envSummaryTTL    = "EXPENSES_SUMMARY_CACHE_TTL"
	envLogLevel      = "EXPENSES_LOG_LEVEL"
)

const defaultEnvFile = ".env"

// parseEnv overlays config with EXPENSES_* environment variables. Variables
// from the file named by -envfile (or ./.env when present) are loaded first;
// godotenv never overrides variables already set in the process environment.
// Malformed numeric or duration values panic, like a broken JSON file.
func parseEnv(config *Config, args []string) {
	loadEnvFile(flagx.EnvFilePath(args))

	lookupString(&config.EndpointAddrHTTP, envAddr)
	lookupString(&config.DatabaseDSN, envDatabaseDSN)
	lookupString(&config.SecretKey, envSecretKey)
	lookupString(&config.TokenIssuer, envIssuer)
	lookupString(&config.TokenAudience, envAudience)
	lookupDuration(&config.AccessTokenValidityDuration, envTokenTTL)
	lookupInt(&config.BcryptCost, envBcryptCost)
	lookupString(&config.RedisAddr, envRedisAddr)
	lookupString(&config.RedisPassword, envRedisPassword)
	lookupInt(&config.RedisDB, envRedisDB)
	lookupDuration(&config.SummaryCacheTTL, envSummaryTTL)
	lookupString(&config.LogLevel, envLogLevel)
}

func loadEnvFile(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func lookupInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func lookupDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

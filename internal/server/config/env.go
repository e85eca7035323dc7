package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CLASSROOM_"

// parseEnv loads envFile (".env" when empty) into the process environment
// and then applies every CLASSROOM_* variable that is set.
//
// A missing default .env is ignored; an explicitly named file must exist.
// Variables already present in the environment win over the file.
func parseEnv(config *Config, envFile string) {
	name := envFile
	if name == "" {
		name = ".env"
	}
	if err := godotenv.Load(name); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			panic(fmt.Errorf("load %s: %w", name, err))
		}
	}

	lookupString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	lookupString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	lookupString(&config.DatabaseDSN, "DATABASE_DSN")
	lookupString(&config.SecretKey, "SECRET_KEY")
	lookupDuration(&config.SessionTokenValidityDuration, "SESSION_TOKEN_TTL")
	lookupDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	lookupInt(&config.AccessTokenSecretSize, "ACCESS_TOKEN_SECRET_SIZE")
	lookupInt(&config.AccessTokenRetryBudget, "ACCESS_TOKEN_RETRY_BUDGET")
	lookupDuration(&config.PruneInterval, "PRUNE_INTERVAL")
	lookupString(&config.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func lookupInt(dst *int, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
	}
	*dst = n
}

func lookupDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
	}
	*dst = d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

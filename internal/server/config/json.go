package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/classroom/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both strings such as "720h" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	AccessTokenSecretSize        int            `json:"access_token_secret_size"`
	AccessTokenRetryBudget       int            `json:"access_token_retry_budget"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	PruneInterval                timex.Duration `json:"prune_interval"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays the values present in path onto config. Keys missing
// from the file leave the current value untouched. An empty path is a no-op;
// an unreadable file or invalid JSON panics.
func parseJson(config *Config, path string) {
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.SessionTokenValidityDuration.Duration != 0 {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PruneInterval.Duration != 0 {
		config.PruneInterval = c.PruneInterval.Duration
	}
	if c.AccessTokenSecretSize != 0 {
		config.AccessTokenSecretSize = c.AccessTokenSecretSize
	}
	if c.AccessTokenRetryBudget != 0 {
		config.AccessTokenRetryBudget = c.AccessTokenRetryBudget
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

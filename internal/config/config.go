package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
)

const (
	// EnvConfig holds the JSON array of ArgoCD servers to poll
	EnvConfig = "ARGOCD_CONFIG"
	// EnvPort overrides the exposition port
	EnvPort = "PORT"
	// EnvPollInterval overrides the poll interval in seconds
	EnvPollInterval = "POLL_INTERVAL"

	defaultPort         = 8000
	defaultPollInterval = 30
)

// ServerConfig identifies one ArgoCD instance to poll. The URL doubles
// as the server label on every exported metric, so it must be unique.
type ServerConfig struct {
	URL   string `json:"server"`
	Token string `json:"token"`
}

// Config holds the validated exporter configuration
type Config struct {
	Servers      []ServerConfig
	Port         int
	PollInterval time.Duration
}

// Load reads and validates the exporter configuration from the
// environment. Any validation failure returns a config error; the
// exporter must not start with a partially valid configuration.
func Load() (*Config, error) {
	raw, ok := os.LookupEnv(EnvConfig)
	if !ok || raw == "" {
		return nil, errors.NewConfigError(EnvConfig+" environment variable is not set", nil)
	}

	var servers []ServerConfig
	if err := json.Unmarshal([]byte(raw), &servers); err != nil {
		return nil, errors.NewConfigError("failed to parse "+EnvConfig+" as a JSON array", err)
	}
	if len(servers) == 0 {
		return nil, errors.NewConfigError(EnvConfig+" must list at least one server", nil)
	}

	seen := make(map[string]struct{}, len(servers))
	for i, s := range servers {
		if s.URL == "" {
			return nil, errors.NewConfigError("server entry "+strconv.Itoa(i)+" is missing the server field", nil)
		}
		if s.Token == "" {
			return nil, errors.NewConfigError("server entry "+strconv.Itoa(i)+" is missing the token field", nil)
		}
		// Duplicate URLs would silently clobber each other's series
		if _, dup := seen[s.URL]; dup {
			return nil, errors.NewConfigError("duplicate server URL "+s.URL, nil)
		}
		seen[s.URL] = struct{}{}
	}

	port, err := intFromEnv(EnvPort, defaultPort)
	if err != nil {
		return nil, err
	}

	interval, err := intFromEnv(EnvPollInterval, defaultPollInterval)
	if err != nil {
		return nil, err
	}

	return &Config{
		Servers:      servers,
		Port:         port,
		PollInterval: time.Duration(interval) * time.Second,
	}, nil
}

// intFromEnv parses an optional positive integer environment variable,
// falling back to def when unset or empty.
func intFromEnv(key string, def int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewConfigError(key+" must be an integer", err)
	}
	if v <= 0 {
		return 0, errors.NewConfigError(key+" must be positive", nil)
	}
	return v, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	shared "github.com/getlisted/platform/libs/shared/config"
)

// Config captures all runtime configuration knobs for the web service.
type Config struct {
	Port                string
	BackendURL          string
	BackendTimeout      time.Duration
	DirectoryURL        string
	KafkaBrokers        []string
	KafkaTopic          string
	EventsEnabled       bool
	SessionTTL          time.Duration
	SessionSweep        time.Duration
	RequestTimeout      time.Duration
	ShutdownGracePeriod time.Duration
	LogLevel            string
}

const (
	defaultPort           = "8080"
	defaultRequestTimeout = 20 * time.Second
	defaultShutdownGrace  = 5 * time.Second
	defaultSessionSweep   = time.Minute
)

// Load builds the web configuration from the shared environment plus the
// WEB_* overrides. The backend URL must be absolute.
func Load() (Config, error) {
	return build(shared.Load())
}

func build(env *shared.AppConfig) (Config, error) {
	cfg := Config{
		Port:                env.ResolveServiceHTTPPort("web", defaultPort),
		BackendURL:          env.BackendURL,
		BackendTimeout:      env.BackendTimeout,
		DirectoryURL:        os.Getenv("DIRECTORY_SERVICE_URL"),
		KafkaBrokers:        env.KafkaBrokerList(),
		KafkaTopic:          env.KafkaTopic,
		EventsEnabled:       parseBool("WEB_PUBLISH_EVENTS", true),
		SessionTTL:          env.SessionTTL,
		SessionSweep:        parseDuration("WEB_SESSION_SWEEP", defaultSessionSweep),
		RequestTimeout:      parseDuration("WEB_REQUEST_TIMEOUT", defaultRequestTimeout),
		ShutdownGracePeriod: parseDuration("WEB_SHUTDOWN_GRACE", defaultShutdownGrace),
		LogLevel:            env.LogLevel,
	}

	parsed, err := url.Parse(cfg.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", cfg.BackendURL)
	}
	if cfg.DirectoryURL != "" {
		if parsed, err := url.Parse(cfg.DirectoryURL); err != nil || parsed.Host == "" {
			return Config{}, fmt.Errorf("DIRECTORY_SERVICE_URL must be an absolute URL, got %q", cfg.DirectoryURL)
		}
	}

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}

	// Allow values in seconds for convenience.
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}

	return fallback
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

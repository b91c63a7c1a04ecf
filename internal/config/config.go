package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "FIELDTRACK_"

// Config holds agent configuration read from the environment.
type Config struct {
	APIURL string

	Store           string // "sqlite" or "redis"
	DBPath          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTL        time.Duration
	Device          string
	StorePassphrase string

	Port      string
	LogLevel  string
	LogFormat string

	GracePeriod   time.Duration
	PollInterval  time.Duration
	ProbeURL      string
	ProbeInterval time.Duration

	GPS GPSConfig
}

// GPSConfig selects and configures the position source.
type GPSConfig struct {
	Source         string // "gpsd", "static" or "replay"
	GPSDAddr       string
	StaticLat      string
	StaticLon      string
	ReplayFile     string
	ReplayInterval time.Duration
}

// Load reads configuration from the environment. Variables in envFiles (or
// ".env" when none are given) are loaded first without overriding values
// already set in the process environment. Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		APIURL:          envString("API_URL", ""),
		Store:           strings.ToLower(envString("STORE", "sqlite")),
		DBPath:          envString("DB_PATH", "fieldtrack.db"),
		RedisAddr:       envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   envString("REDIS_PASSWORD", ""),
		RedisDB:         envInt("REDIS_DB", 0),
		RedisTTL:        envDuration("REDIS_TTL", 24*time.Hour),
		Device:          envString("DEVICE", defaultDevice()),
		StorePassphrase: envString("STORE_PASSPHRASE", ""),
		Port:            envString("PORT", "8088"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		LogFormat:       envString("LOG_FORMAT", "text"),
		GracePeriod:     envDuration("GRACE_PERIOD", 120*time.Second),
		PollInterval:    envDuration("POLL_INTERVAL", 5*time.Second),
		ProbeURL:        envString("PROBE_URL", ""),
		ProbeInterval:   envDuration("PROBE_INTERVAL", 2*time.Second),
		GPS: GPSConfig{
			Source:         strings.ToLower(envString("GPS_SOURCE", "gpsd")),
			GPSDAddr:       envString("GPSD_ADDR", "localhost:2947"),
			StaticLat:      envString("STATIC_LAT", ""),
			StaticLon:      envString("STATIC_LON", ""),
			ReplayFile:     envString("REPLAY_FILE", ""),
			ReplayInterval: envDuration("REPLAY_INTERVAL", time.Second),
		},
	}
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = cfg.APIURL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and enumerations.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%sAPI_URL is required", prefix)
	}
	switch c.Store {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("%sSTORE: unknown store %q", prefix, c.Store)
	}
	switch c.GPS.Source {
	case "gpsd", "static", "replay":
	default:
		return fmt.Errorf("%sGPS_SOURCE: unknown source %q", prefix, c.GPS.Source)
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("%sGRACE_PERIOD must be positive", prefix)
	}
	if c.PollInterval <= 0 || c.ProbeInterval <= 0 {
		return fmt.Errorf("poll and probe intervals must be positive")
	}
	return nil
}

func defaultDevice() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "default"
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(prefix + key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(prefix + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(prefix + key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

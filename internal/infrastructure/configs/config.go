package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/roastparty/server/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Store       StoreConfig       `koanf:"store"`
	Cleanup     CleanupConfig     `koanf:"cleanup"`
	Rooms       RoomsConfig       `koanf:"rooms"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	MaxRatePerSecond int           `koanf:"maxRatePerSecond"`
	MaxBurst         int           `koanf:"maxBurst"`
	CacheTTL         time.Duration `koanf:"cacheTTL"`
	SourceHeaderKey  string        `koanf:"sourceHeaderKey"`
}

// StoreConfig selects the storage backend. "mongo" is the production
// backend; "memory" keeps everything in process for development and tests.
type StoreConfig struct {
	Backend string `koanf:"backend"`
}

type CleanupConfig struct {
	ExpirySweepInterval   time.Duration `koanf:"expiry_sweep_interval"`
	ActivitySweepInterval time.Duration `koanf:"activity_sweep_interval"`
	ShortInactivity       time.Duration `koanf:"short_inactivity"`
	LongInactivity        time.Duration `koanf:"long_inactivity"`
	MessageRetention      time.Duration `koanf:"message_retention"`
}

type RoomsConfig struct {
	MessageHistoryLimit int `koanf:"message_history_limit"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization", "X-User-Id"})

	setDefault(k, "rateLimiter.maxRatePerSecond", 10)
	setDefault(k, "rateLimiter.maxBurst", 20)
	setDefault(k, "rateLimiter.cacheTTL", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")

	setDefault(k, "store.backend", "mongo")

	setDefault(k, "cleanup.expiry_sweep_interval", 30*time.Minute)
	setDefault(k, "cleanup.activity_sweep_interval", 5*time.Minute)
	setDefault(k, "cleanup.short_inactivity", 30*time.Minute)
	setDefault(k, "cleanup.long_inactivity", 2*time.Hour)
	setDefault(k, "cleanup.message_retention", 7*24*time.Hour)

	setDefault(k, "rooms.message_history_limit", 100)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if maxRate := env.GetInt("RATE_LIMIT_MAX_RATE_PER_SECOND", 0); maxRate > 0 {
		k.Set("rateLimiter.maxRatePerSecond", maxRate)
	}
	if maxBurst := env.GetInt("RATE_LIMIT_MAX_BURST", 0); maxBurst > 0 {
		k.Set("rateLimiter.maxBurst", maxBurst)
	}

	if backend := env.GetString("STORE_BACKEND", ""); backend != "" {
		k.Set("store.backend", backend)
	}

	if interval := env.GetDuration("CLEANUP_EXPIRY_SWEEP_INTERVAL", 0); interval > 0 {
		k.Set("cleanup.expiry_sweep_interval", interval)
	}
	if interval := env.GetDuration("CLEANUP_ACTIVITY_SWEEP_INTERVAL", 0); interval > 0 {
		k.Set("cleanup.activity_sweep_interval", interval)
	}
	if threshold := env.GetDuration("CLEANUP_SHORT_INACTIVITY", 0); threshold > 0 {
		k.Set("cleanup.short_inactivity", threshold)
	}
	if threshold := env.GetDuration("CLEANUP_LONG_INACTIVITY", 0); threshold > 0 {
		k.Set("cleanup.long_inactivity", threshold)
	}
	if retention := env.GetDuration("CLEANUP_MESSAGE_RETENTION", 0); retention > 0 {
		k.Set("cleanup.message_retention", retention)
	}

	if limit := env.GetInt("ROOMS_MESSAGE_HISTORY_LIMIT", 0); limit > 0 {
		k.Set("rooms.message_history_limit", limit)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

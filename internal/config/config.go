package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Graph     GraphConfig
	Logging   LoggingConfig
	Redis     RedisConfig
	Ingest    IngestConfig
	Generator GeneratorConfig
	Notify    NotifyConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the graph database (Neptune/Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// RedisConfig enables the directory cache and the cross-instance event relay.
// An empty Addr disables both.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	NameCacheTTL time.Duration
	EventChannel string
}

// IngestConfig tunes the conflict retry policy of the write path.
type IngestConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration
}

// GeneratorConfig tunes the recurring mock load generator.
type GeneratorConfig struct {
	DefaultInterval  time.Duration
	MaxInFlightTicks int
	Seed             int64
}

// NotifyConfig tunes live observer fan-out.
type NotifyConfig struct {
	SubscriberBuffer int
	EmitTimeout      time.Duration
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultNameCacheTTL     = 5 * time.Minute
	defaultEventChannel     = "bizflow:transactions"
	defaultMaxAttempts      = 4
	defaultBaseDelay        = 100 * time.Millisecond
	defaultMaxDelay         = 2 * time.Second
	defaultMaxJitter        = 100 * time.Millisecond
	defaultInterval         = 3 * time.Second
	defaultMaxInFlightTicks = 1
	defaultSubscriberBuffer = 64
	defaultEmitTimeout      = 5 * time.Second
)

// ErrInvalidConfig is wrapped by every validation failure returned from Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from an optional file, a .env file and environment
// variables, applying defaults. Environment variables win over the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:              v.GetString("SERVER_HOST"),
			AllowedOriginsCSV: v.GetString("SERVER_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:         v.GetString("LOG_LEVEL"),
			Format:        v.GetString("LOG_FORMAT"),
			IncludeCaller: v.GetBool("LOG_INCLUDE_CALLER"),
		},
		Graph: GraphConfig{
			URI:            v.GetString("GRAPH_URI"),
			Database:       v.GetString("GRAPH_DATABASE"),
			Username:       v.GetString("GRAPH_USERNAME"),
			Password:       v.GetString("GRAPH_PASSWORD"),
			MaxConnections: v.GetInt("GRAPH_MAX_CONNECTIONS"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			EventChannel: v.GetString("REDIS_EVENT_CHANNEL"),
		},
		Ingest: IngestConfig{
			MaxAttempts: v.GetInt("INGEST_MAX_ATTEMPTS"),
		},
		Generator: GeneratorConfig{
			MaxInFlightTicks: v.GetInt("GENERATOR_MAX_IN_FLIGHT_TICKS"),
			Seed:             v.GetInt64("GENERATOR_SEED"),
		},
		Notify: NotifyConfig{
			SubscriberBuffer: v.GetInt("NOTIFY_SUBSCRIBER_BUFFER"),
		},
	}

	port := v.GetString("SERVER_PORT")
	p, err := parsePort(port)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = p

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"REDIS_NAME_CACHE_TTL", &cfg.Redis.NameCacheTTL},
		{"INGEST_BASE_DELAY", &cfg.Ingest.BaseDelay},
		{"INGEST_MAX_DELAY", &cfg.Ingest.MaxDelay},
		{"INGEST_MAX_JITTER", &cfg.Ingest.MaxJitter},
		{"GENERATOR_DEFAULT_INTERVAL", &cfg.Generator.DefaultInterval},
		{"NOTIFY_EMIT_TIMEOUT", &cfg.Notify.EmitTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, d.key, err)
		}
		*d.dst = parsed
	}

	if cfg.Ingest.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("%w: INGEST_MAX_ATTEMPTS must be at least 1", ErrInvalidConfig)
	}
	if cfg.Generator.MaxInFlightTicks < 1 {
		return Config{}, fmt.Errorf("%w: GENERATOR_MAX_IN_FLIGHT_TICKS must be at least 1", ErrInvalidConfig)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", defaultHost)
	v.SetDefault("SERVER_PORT", defaultPort)
	v.SetDefault("SERVER_READ_TIMEOUT", defaultReadTimeout.String())
	v.SetDefault("SERVER_WRITE_TIMEOUT", defaultWriteTimeout.String())
	v.SetDefault("SERVER_IDLE_TIMEOUT", defaultIdleTimeout.String())
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout.String())
	v.SetDefault("LOG_LEVEL", defaultLoggingLevel)
	v.SetDefault("LOG_FORMAT", defaultLoggingFormat)
	v.SetDefault("LOG_INCLUDE_CALLER", false)
	v.SetDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions)
	v.SetDefault("REDIS_NAME_CACHE_TTL", defaultNameCacheTTL.String())
	v.SetDefault("REDIS_EVENT_CHANNEL", defaultEventChannel)
	v.SetDefault("INGEST_MAX_ATTEMPTS", defaultMaxAttempts)
	v.SetDefault("INGEST_BASE_DELAY", defaultBaseDelay.String())
	v.SetDefault("INGEST_MAX_DELAY", defaultMaxDelay.String())
	v.SetDefault("INGEST_MAX_JITTER", defaultMaxJitter.String())
	v.SetDefault("GENERATOR_DEFAULT_INTERVAL", defaultInterval.String())
	v.SetDefault("GENERATOR_MAX_IN_FLIGHT_TICKS", defaultMaxInFlightTicks)
	v.SetDefault("NOTIFY_SUBSCRIBER_BUFFER", defaultSubscriberBuffer)
	v.SetDefault("NOTIFY_EMIT_TIMEOUT", defaultEmitTimeout.String())
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: SERVER_PORT %q: %v", ErrInvalidConfig, raw, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: port %d is out of range", ErrInvalidConfig, port)
	}
	return port, nil
}

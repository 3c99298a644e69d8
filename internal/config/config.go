package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Persistence.
	StoreBackend  string
	MongoURI      string
	MongoDatabase string
	StoreTimeout  time.Duration

	// Seed lock. Empty RedisAddr means an in-process lock.
	RedisAddr   string
	SeedLockTTL time.Duration

	// Mail transport. Empty SMTPHost logs messages instead of sending them.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTimeout  time.Duration
	MailRetries  int

	// Background jobs.
	SweepInterval        time.Duration
	NotifyInterval       time.Duration
	NotifyNearbyRadiusKM float64

	// Event feed. No brokers disables publishing.
	KafkaBrokers     []string
	KafkaEventsTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	AuthJWTSecret string
	AdminToken    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		StoreBackend:     sharedcfg.EnvOrDefault("STORE_BACKEND", BackendMongo),
		MongoURI:         sharedcfg.EnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    sharedcfg.EnvOrDefault("MONGO_DATABASE", "stargazerdb"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         os.Getenv("MAIL_FROM"),
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "astronomical-events"),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		AuthJWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"STORE_TIMEOUT", "5s", &cfg.StoreTimeout},
		{"SEED_LOCK_TTL", "30s", &cfg.SeedLockTTL},
		{"MAIL_TIMEOUT", "10s", &cfg.MailTimeout},
		{"SWEEP_INTERVAL", "1h", &cfg.SweepInterval},
		{"NOTIFY_INTERVAL", "1h", &cfg.NotifyInterval},
		{"MAPBOX_TIMEOUT", "5s", &cfg.MapboxTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.SMTPPort, err = parseInt("SMTP_PORT", 587, 1, 65535); err != nil {
		return nil, err
	}
	if cfg.MailRetries, err = parseInt("MAIL_RETRIES", 3, 1, 10); err != nil {
		return nil, err
	}
	if cfg.MapboxCacheSize, err = parseInt("MAPBOX_CACHE_SIZE", 1000, 1, 1_000_000); err != nil {
		return nil, err
	}
	if cfg.NotifyNearbyRadiusKM, err = parseFloat("NOTIFY_NEARBY_RADIUS_KM", 0); err != nil {
		return nil, err
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_BACKEND is mongo")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: want mongo or memory", c.StoreBackend)
	}
	if c.MailEnabled() && c.MailFrom == "" {
		return errors.New("MAIL_FROM is required when SMTP_HOST is set")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaEventsTopic == "" {
		return errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative number", key)
	}
	return f, nil
}

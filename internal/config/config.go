package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SequenceBackendPostgres = "postgres"
	SequenceBackendRedis    = "redis"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	MatchThresholdPercent int           `mapstructure:"MATCH_THRESHOLD_PERCENT"`
	SequenceBackend       string        `mapstructure:"SEQUENCE_BACKEND"`
	RedisURL              string        `mapstructure:"REDIS_URL"`
	KafkaBrokers          []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaOutcomeTopic     string        `mapstructure:"KAFKA_OUTCOME_TOPIC"`
	AuthIssuer            string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience          string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey        string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit             string        `mapstructure:"BODY_LIMIT"`
	RateLimitRPS          float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MATCH_THRESHOLD_PERCENT", 80)
	v.SetDefault("SEQUENCE_BACKEND", SequenceBackendPostgres)
	v.SetDefault("KAFKA_OUTCOME_TOPIC", "patient-intake.outcomes")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"MATCH_THRESHOLD_PERCENT", "SEQUENCE_BACKEND", "REDIS_URL",
		"KAFKA_BROKERS", "KAFKA_OUTCOME_TOPIC",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
		"CORS_ORIGINS", "REQUEST_TIMEOUT", "BODY_LIMIT",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers, v.GetString("KAFKA_BROKERS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: intake server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
	}

	return cfg, nil
}

// splitList normalizes list-valued settings that arrive from the environment
// as a single comma separated string.
func splitList(decoded []string, raw string) []string {
	if raw == "" {
		return decoded
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.MatchThresholdPercent < 1 || c.MatchThresholdPercent > 100 {
		return fmt.Errorf("MATCH_THRESHOLD_PERCENT must be between 1 and 100, got %d", c.MatchThresholdPercent)
	}

	switch c.SequenceBackend {
	case SequenceBackendPostgres:
	case SequenceBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SEQUENCE_BACKEND is %q", SequenceBackendRedis)
		}
	default:
		return fmt.Errorf("SEQUENCE_BACKEND must be %q or %q, got %q",
			SequenceBackendPostgres, SequenceBackendRedis, c.SequenceBackend)
	}

	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set outside development (current ENV=%q)", c.Env)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive, got %g and %d", c.RateLimitRPS, c.RateLimitBurst)
	}

	return nil
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultDatabaseURL = "file:data/pulseo.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
)

type Config struct {
	ServiceName string
	AppEnv      string

	ServerPort int

	DatabaseURL string

	JWTSecret []byte

	LogLevel string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	SoftDeleteGrace time.Duration
	SweepInterval   time.Duration

	AuthRateLimit float64
	AuthRateBurst int

	HashConcurrency int
}

func (c Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Load reads .env (if present) and the process environment. It fails only when
// the configuration cannot be used at all, e.g. production without JWT_SECRET.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "pulseo"),
		AppEnv:      strings.ToLower(EnvDefault("APP_ENV", EnvDevelopment)),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: EnvDefault("DATABASE_URL", DefaultDatabaseURL),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "tasks"),

		SoftDeleteGrace: EnvDurationDefault("SOFT_DELETE_GRACE", 60*time.Second),
		SweepInterval:   EnvDurationDefault("SWEEP_INTERVAL", 60*time.Second),

		AuthRateLimit: EnvFloatDefault("AUTH_RATE_LIMIT", 5),
		AuthRateBurst: EnvIntDefault("AUTH_RATE_BURST", 10),

		HashConcurrency: EnvIntDefault("HASH_CONCURRENCY", 4),
	}

	secret, err := ResolveJWTSecret(cfg.AppEnv, os.Getenv("JWT_SECRET"))
	if err != nil {
		return Config{}, err
	}
	cfg.JWTSecret = secret

	return cfg, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

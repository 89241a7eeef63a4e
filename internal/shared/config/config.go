package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultLeaveCategories   = "casual:12,sick:10,earned:15"
	defaultShortLeaveMaxDays = 2
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Leave    LeaveConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MigrateOnStart  bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	MaxRetries int
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Broker             string
	ConsumerGroup      string
	OutboxPollInterval time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// Allotment is the default number of days granted for one leave category.
type Allotment struct {
	Category string
	Days     decimal.Decimal
}

type LeaveConfig struct {
	// Categories keeps the order given in LEAVE_CATEGORIES.
	Categories        []Allotment
	ShortLeaveMaxDays int
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:       os.Getenv("DB_HOST"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       os.Getenv("DB_NAME"),
			Port:       getEnv("DB_PORT", "5432"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			MaxRetries: 5,
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
		Kafka: KafkaConfig{
			Broker:        os.Getenv("KAFKA_BROKER"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "go-leave-balance"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
	}

	var err error
	if cfg.Server.MigrateOnStart, err = parseBool("MIGRATE_ON_START", false); err != nil {
		return nil, err
	}
	if cfg.JWT.TTL, err = parseDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Kafka.OutboxPollInterval, err = parseDuration("OUTBOX_POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}

	cfg.Leave.Categories, err = ParseAllotments(getEnv("LEAVE_CATEGORIES", defaultLeaveCategories))
	if err != nil {
		return nil, err
	}
	cfg.Leave.ShortLeaveMaxDays = defaultShortLeaveMaxDays
	if v := os.Getenv("LEAVE_SHORT_MAX_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("LEAVE_SHORT_MAX_DAYS must be a positive integer, got %q", v)
		}
		cfg.Leave.ShortLeaveMaxDays = n
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("DB_HOST is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// ParseAllotments parses "casual:12,sick:10,earned:15". Category names are
// lower-cased; duplicates and negative amounts are rejected.
func ParseAllotments(raw string) ([]Allotment, error) {
	var out []Allotment
	seen := map[string]bool{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, days, found := strings.Cut(part, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("invalid leave category entry %q", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate leave category %q", name)
		}

		amount := decimal.Zero
		if found {
			d, err := decimal.NewFromString(strings.TrimSpace(days))
			if err != nil {
				return nil, fmt.Errorf("invalid allotment for %q: %w", name, err)
			}
			if d.IsNegative() {
				return nil, fmt.Errorf("allotment for %q must not be negative", name)
			}
			amount = d
		}

		seen[name] = true
		out = append(out, Allotment{Category: name, Days: amount})
	}

	if len(out) == 0 {
		return nil, errors.New("at least one leave category is required")
	}
	return out, nil
}

// DSN builds the libpq style connection string used by the postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

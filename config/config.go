package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. SEVA_DATABASE_HOST.
const EnvPrefix = "SEVA"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Seva     SevaConfig     `yaml:"seva"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" split_words:"true"`
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
	// RatePerMinute limits requests per client address; 0 disables limiting.
	RatePerMinute int `yaml:"rate_per_minute" split_words:"true"`
	RateBurst     int `yaml:"rate_burst" split_words:"true"`
}

type GRPCConfig struct {
	Address string `yaml:"address" split_words:"true"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	User     string `yaml:"user" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	Name     string `yaml:"name" split_words:"true"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`
	Migrate  bool   `yaml:"migrate" split_words:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" split_words:"true"`
	BookingEventsTopic string   `yaml:"booking_events_topic" split_words:"true"`
	NotificationsTopic string   `yaml:"notifications_topic" split_words:"true"`
	GroupID            string   `yaml:"group_id" split_words:"true"`
}

type SevaConfig struct {
	Timezone           string `yaml:"timezone" split_words:"true"`
	ConfirmRetries     int    `yaml:"confirm_retries" split_words:"true"`
	RetryBackoffMillis int    `yaml:"retry_backoff_ms" split_words:"true"`
	SlotCacheTTL       int    `yaml:"slot_cache_ttl_seconds" split_words:"true"`
	LockTTL            int    `yaml:"lock_ttl_seconds" split_words:"true"`
	CalendarMaxDays    int    `yaml:"calendar_max_days" split_words:"true"`
}

// Location resolves the temple's timezone; an empty value means UTC.
func (s SevaConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

func (s SevaConfig) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffMillis) * time.Millisecond
}

func (s SevaConfig) SlotCacheDuration() time.Duration {
	return time.Duration(s.SlotCacheTTL) * time.Second
}

func (s SevaConfig) LockDuration() time.Duration {
	return time.Duration(s.LockTTL) * time.Second
}

type LogConfig struct {
	Level       string `yaml:"level" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:       ":8080",
			RatePerMinute: 600,
			RateBurst:     60,
		},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			BookingEventsTopic: "seva.bookings",
			NotificationsTopic: "seva.notifications",
			GroupID:            "seva-notifier",
		},
		Seva: SevaConfig{
			Timezone:           "Asia/Kolkata",
			ConfirmRetries:     3,
			RetryBackoffMillis: 50,
			SlotCacheTTL:       30,
			LockTTL:            5,
			CalendarMaxDays:    31,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads the YAML file at path over built-in defaults, then applies
// SEVA_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if cfg.Seva.ConfirmRetries < 1 {
		return nil, fmt.Errorf("seva.confirm_retries must be at least 1, got %d", cfg.Seva.ConfirmRetries)
	}
	if _, err := cfg.Seva.Location(); err != nil {
		return nil, fmt.Errorf("seva.timezone: %w", err)
	}

	return &cfg, nil
}

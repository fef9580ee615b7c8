package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WMF_"

type Config struct {
	App           AppConfig           `koanf:"app"`
	HTTP          HTTPConfig          `koanf:"http"`
	Storage       StorageConfig       `koanf:"storage"`
	Database      DatabaseConfig      `koanf:"database"`
	RabbitMQ      RabbitMQConfig      `koanf:"rabbitmq"`
	Kafka         KafkaConfig         `koanf:"kafka"`
	Events        EventsConfig        `koanf:"events"`
	Redis         RedisConfig         `koanf:"redis"`
	Idempotency   IdempotencyConfig   `koanf:"idempotency"`
	Auth          AuthConfig          `koanf:"auth"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Orders        OrdersConfig        `koanf:"orders"`
	Tracing       TracingConfig       `koanf:"tracing"`
}

type AppConfig struct {
	Name     string `koanf:"name"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`
}

type HTTPConfig struct {
	Port            int           `koanf:"port"`
	MaxConcurrent   int           `koanf:"max_concurrent"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is postgres or memory.
	Driver   string `koanf:"driver"`
	SeedFile string `koanf:"seed_file"`
}

type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int32  `koanf:"max_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type RabbitMQConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

type EventsConfig struct {
	// Driver is rabbitmq, kafka or none.
	Driver string `koanf:"driver"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type IdempotencyConfig struct {
	// Driver is redis, memory or none.
	Driver string        `koanf:"driver"`
	TTL    time.Duration `koanf:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
}

type NotificationsConfig struct {
	TwilioAccountSID   string        `koanf:"twilio_account_sid"`
	TwilioAuthToken    string        `koanf:"twilio_auth_token"`
	TwilioFromNumber   string        `koanf:"twilio_from_number"`
	TwilioBaseURL      string        `koanf:"twilio_base_url"`
	DefaultCountryCode string        `koanf:"default_country_code"`
	Workers            int           `koanf:"workers"`
	QueueSize          int           `koanf:"queue_size"`
	SendTimeout        time.Duration `koanf:"send_timeout"`
}

// SMSEnabled reports whether all provider credentials are present.
func (c NotificationsConfig) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

type OrdersConfig struct {
	EnforceTransitions bool `koanf:"enforce_transitions"`
	DefaultListLimit   int  `koanf:"default_list_limit"`
	MaxListLimit       int  `koanf:"max_list_limit"`
}

type TracingConfig struct {
	Endpoint       string `koanf:"endpoint"`
	Insecure       bool   `koanf:"insecure"`
	ServiceVersion string `koanf:"service_version"`
}

// Default returns the values used for keys absent from every source.
func Default() Config {
	return Config{
		App: AppConfig{Name: "order-service", Env: "dev", LogLevel: "info"},
		HTTP: HTTPConfig{
			Port:            3000,
			MaxConcurrent:   50,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage:     StorageConfig{Driver: "postgres"},
		Database:    DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", MaxConns: 10},
		RabbitMQ:    RabbitMQConfig{Host: "localhost", Port: 5672},
		Kafka:       KafkaConfig{Topic: "order-events", BatchTimeout: 10 * time.Millisecond},
		Events:      EventsConfig{Driver: "rabbitmq"},
		Redis:       RedisConfig{Addr: "localhost:6379"},
		Idempotency: IdempotencyConfig{Driver: "redis", TTL: 24 * time.Hour},
		Notifications: NotificationsConfig{
			TwilioBaseURL:      "https://api.twilio.com",
			DefaultCountryCode: "91",
			Workers:            4,
			QueueSize:          256,
			SendTimeout:        10 * time.Second,
		},
		Orders: OrdersConfig{DefaultListLimit: 50, MaxListLimit: 200},
	}
}

// Load reads path (optional when empty or missing), overlays WMF_* environment
// variables with "__" as the nesting separator and validates the result.
// e.g. WMF_DATABASE__HOST, WMF_NOTIFICATIONS__TWILIO_AUTH_TOKEN
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port >= 65536 {
		errs = append(errs, fmt.Errorf("http.port must be in [1, 65535]: %d", c.HTTP.Port))
	}
	if c.HTTP.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("http.max_concurrent must be positive: %d", c.HTTP.MaxConcurrent))
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Database.Database == "" {
			errs = append(errs, errors.New("database.database required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be postgres or memory: %q", c.Storage.Driver))
	}

	switch c.Events.Driver {
	case "rabbitmq", "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers required for kafka events"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.driver must be rabbitmq, kafka or none: %q", c.Events.Driver))
	}

	switch c.Idempotency.Driver {
	case "redis", "memory", "none":
	default:
		errs = append(errs, fmt.Errorf("idempotency.driver must be redis, memory or none: %q", c.Idempotency.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret required"))
	}
	if c.Notifications.Workers <= 0 || c.Notifications.QueueSize <= 0 {
		errs = append(errs, errors.New("notifications.workers and notifications.queue_size must be positive"))
	}
	if c.Orders.MaxListLimit < c.Orders.DefaultListLimit {
		errs = append(errs, errors.New("orders.max_list_limit must not be below orders.default_list_limit"))
	}

	return errors.Join(errs...)
}

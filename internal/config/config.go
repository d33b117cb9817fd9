package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	GRPCHealthPort string `mapstructure:"GRPC_HEALTH_PORT"`

	BreweryAPIURL          string        `mapstructure:"BREWERY_API_URL"`
	PaymentServiceURL      string        `mapstructure:"PAYMENT_SERVICE_URL"`
	ShippingServiceURL     string        `mapstructure:"SHIPPING_SERVICE_URL"`
	NotificationServiceURL string        `mapstructure:"NOTIFICATION_SERVICE_URL"`
	DownstreamTimeout      time.Duration `mapstructure:"DOWNSTREAM_TIMEOUT"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL"`

	SagaLogPath string `mapstructure:"SAGA_LOG_PATH"`

	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	OrderEventsTopic string `mapstructure:"ORDER_EVENTS_TOPIC"`

	OtelExporterEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelServiceName      string `mapstructure:"OTEL_SERVICE_NAME"`
	LogLevel             string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"APP_ENV":                     "development",
	"PORT":                        "3002",
	"GRPC_HEALTH_PORT":            "9095",
	"BREWERY_API_URL":             "http://localhost:5089",
	"PAYMENT_SERVICE_URL":         "",
	"SHIPPING_SERVICE_URL":        "",
	"NOTIFICATION_SERVICE_URL":    "",
	"DOWNSTREAM_TIMEOUT":          "5s",
	"JWT_SECRET":                  "",
	"REDIS_ADDR":                  "",
	"IDEMPOTENCY_TTL":             "24h",
	"SAGA_LOG_PATH":               "",
	"KAFKA_BROKERS":               "",
	"ORDER_EVENTS_TOPIC":          "order-events",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "order-service",
	"LOG_LEVEL":                   "info",
}

// Load reads configuration from the environment, falling back to a
// .env.<APP_ENV> file in the working directory and then to defaults.
func Load(v *viper.Viper) (*Config, error) {
	return load(v, ".")
}

func load(v *viper.Viper, dir string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envFile := filepath.Join(dir, ".env."+v.GetString("APP_ENV"))
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", envFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode into struct: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BreweryAPIURL == "" {
		return errors.New("config: BREWERY_API_URL must not be empty")
	}
	if c.DownstreamTimeout <= 0 {
		return fmt.Errorf("config: DOWNSTREAM_TIMEOUT must be positive, got %s", c.DownstreamTimeout)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("config: IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL)
	}
	return nil
}

// Brokers splits KAFKA_BROKERS on commas, dropping blanks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

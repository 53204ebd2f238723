package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wekeepgrowing/semo-enrollment/pkg/logger"
	"github.com/wekeepgrowing/semo-enrollment/pkg/messaging"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "ENROLLMENT"

type Config struct {
	Service  ServiceConfig     `yaml:"service"`
	Database DatabaseConfig    `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Log      logger.Config     `yaml:"log"`
	JWT      JWTConfig         `yaml:"jwt"`
	Redis    messaging.Options `yaml:"redis"`
	Workers  WorkersConfig     `yaml:"workers"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/enrollment.yaml"
	}

	// Ensure absolute path
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:                 "enrollment",
			Environment:          "development",
			ClientURL:            "http://localhost:3000",
			PlatformFeePercent:   10,
			WebhookTimeout:       defaultWebhookTimeout,
			NotificationChannel:  "enrollment.events",
			NotificationTimeout:  defaultNotificationTimeout,
			MaxTransitionRetries: 5,
		},
		Database: DatabaseConfig{
			Driver:       DriverPostgres,
			Port:         5432,
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{Host: "0.0.0.0", Port: 8080},
			GRPC: GRPCConfig{Host: "0.0.0.0", Port: 9090},
		},
		Log: logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Workers: WorkersConfig{
			CancellationSweepInterval: defaultSweepInterval,
			WebhookReplayInterval:     defaultReplayInterval,
			WebhookReplayBatch:        50,
			WebhookMaxAttempts:        10,
		},
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Service.StripeWebhookSecret == "" {
		return fmt.Errorf("service.stripe_webhook_secret is required")
	}
	if c.Service.StripeSecretKey == "" {
		return fmt.Errorf("service.stripe_secret_key is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Service.PlatformFeePercent < 0 || c.Service.PlatformFeePercent > 100 {
		return fmt.Errorf("service.platform_fee_percent must be within [0, 100], got %v", c.Service.PlatformFeePercent)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

package config

import (
	"time"

	pkgconfig "github.com/wekeepgrowing/semo-enrollment/pkg/config"
)

const (
	defaultWebhookTimeout      = 10 * time.Second
	defaultNotificationTimeout = 3 * time.Second
	defaultSweepInterval       = time.Minute
	defaultReplayInterval      = 5 * time.Minute
)

type ServiceConfig struct {
	Name                string `yaml:"name"`
	Environment         string `yaml:"environment"`
	Version             string `yaml:"version"`
	ClientURL           string `yaml:"client_url"`
	StripeSecretKey     string `yaml:"stripe_secret_key"`
	StripeWebhookSecret string `yaml:"stripe_webhook_secret"`

	// PlatformFeePercent is the platform's share of every paid amount.
	PlatformFeePercent float64 `yaml:"platform_fee_percent"`

	WebhookTimeout       time.Duration `yaml:"webhook_timeout"`
	MaxTransitionRetries int           `yaml:"max_transition_retries"`

	NotificationsEnabled bool          `yaml:"notifications_enabled"`
	NotificationChannel  string        `yaml:"notification_channel"`
	NotificationTimeout  time.Duration `yaml:"notification_timeout"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type WorkersConfig struct {
	CancellationSweepInterval time.Duration `yaml:"cancellation_sweep_interval"`
	WebhookReplayInterval     time.Duration `yaml:"webhook_replay_interval"`
	WebhookReplayBatch        int           `yaml:"webhook_replay_batch"`
	WebhookMaxAttempts        int           `yaml:"webhook_max_attempts"`
}

// applyEnv lets deployments inject secrets without touching the file.
func (c *Config) applyEnv() {
	env := pkgconfig.FromEnv(EnvPrefix)

	pkgconfig.OverrideString(env, "service.environment", &c.Service.Environment)
	pkgconfig.OverrideString(env, "service.client_url", &c.Service.ClientURL)
	pkgconfig.OverrideString(env, "service.stripe_secret_key", &c.Service.StripeSecretKey)
	pkgconfig.OverrideString(env, "service.stripe_webhook_secret", &c.Service.StripeWebhookSecret)
	pkgconfig.OverrideFloat64(env, "service.platform_fee_percent", &c.Service.PlatformFeePercent)
	pkgconfig.OverrideBool(env, "service.notifications_enabled", &c.Service.NotificationsEnabled)

	pkgconfig.OverrideString(env, "database.driver", &c.Database.Driver)
	pkgconfig.OverrideString(env, "database.host", &c.Database.Host)
	pkgconfig.OverrideInt(env, "database.port", &c.Database.Port)
	pkgconfig.OverrideString(env, "database.name", &c.Database.Name)
	pkgconfig.OverrideString(env, "database.user", &c.Database.User)
	pkgconfig.OverrideString(env, "database.password", &c.Database.Password)

	pkgconfig.OverrideString(env, "jwt.secret", &c.JWT.Secret)
	pkgconfig.OverrideString(env, "redis.addr", &c.Redis.Addr)
	pkgconfig.OverrideString(env, "redis.password", &c.Redis.Password)
	pkgconfig.OverrideString(env, "log.level", &c.Log.Level)
}

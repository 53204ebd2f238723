// Package config는 환경 변수 기반 설정 오버라이드를 제공하는 패키지입니다.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
}

// viperConfig는 viper를 사용하여 Config 인터페이스를 구현합니다.
type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *viperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *viperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }

// FromEnv는 {PREFIX}_{KEY} 형식의 환경 변수를 읽는 Config를 생성합니다.
// 키의 "."은 "_"로 치환됩니다. (예: service.stripe_secret_key → ENROLLMENT_SERVICE_STRIPE_SECRET_KEY)
func FromEnv(prefix string) Config {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &viperConfig{v: v}
}

// OverrideString은 환경 변수가 설정된 경우 target 값을 덮어씁니다.
func OverrideString(c Config, key string, target *string) {
	if c.IsSet(key) {
		*target = c.GetString(key)
	}
}

// OverrideInt는 환경 변수가 설정된 경우 target 값을 덮어씁니다.
func OverrideInt(c Config, key string, target *int) {
	if c.IsSet(key) {
		*target = c.GetInt(key)
	}
}

// OverrideBool은 환경 변수가 설정된 경우 target 값을 덮어씁니다.
func OverrideBool(c Config, key string, target *bool) {
	if c.IsSet(key) {
		*target = c.GetBool(key)
	}
}

// OverrideFloat64는 환경 변수가 설정된 경우 target 값을 덮어씁니다.
func OverrideFloat64(c Config, key string, target *float64) {
	if c.IsSet(key) {
		*target = c.GetFloat64(key)
	}
}

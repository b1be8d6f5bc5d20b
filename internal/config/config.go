// Package config provides Viper-backed configuration loading and the
// plugin.Config wrapper handed to modules.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Config = (*ViperConfig)(nil)

// Load reads fleetd configuration from the given file (optional) and the
// FLEETD_* environment, applying defaults for every tunable the jobs core
// consults.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("store.path", "fleetd.db")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("jobs.max_concurrent", 8)
	v.SetDefault("jobs.template_status_timeout", time.Minute)
	v.SetDefault("jobs.dhparam_timeout", 20*time.Minute)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("FLEETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ViperConfig wraps a Viper instance to implement plugin.Config.
type ViperConfig struct {
	v *viper.Viper
}

// New creates a Config backed by the given Viper instance.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

func (c *ViperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *ViperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *ViperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *ViperConfig) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *ViperConfig) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *ViperConfig) Sub(key string) plugin.Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Viper returns the underlying Viper instance for top-level keys the
// composition root reads directly (store path, cache address, debug).
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}

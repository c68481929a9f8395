// Package config loads daemon configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the daemon.
type Config struct {
	Log struct {
		Level   string `mapstructure:"level"`
		Console bool   `mapstructure:"console"`
	} `mapstructure:"log"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Sequences struct {
		// Dir overrides the default definition search paths when set.
		Dir string `mapstructure:"dir"`
	} `mapstructure:"sequences"`

	Scheduler struct {
		TickIntervalSeconds     int `mapstructure:"tick_interval_seconds"`
		ExecuteTimeoutSeconds   int `mapstructure:"execute_timeout_seconds"`
		MaxConcurrentExecutions int `mapstructure:"max_concurrent_executions"`
	} `mapstructure:"scheduler"`

	Campaign struct {
		// BatchSize and ThrottleSeconds are the operator's persisted run
		// defaults; individual runs may override them.
		BatchSize       int `mapstructure:"batch_size"`
		ThrottleSeconds int `mapstructure:"throttle_seconds"`
	} `mapstructure:"campaign"`

	Mail struct {
		UnsubscribeBaseURL string `mapstructure:"unsubscribe_base_url"`
	} `mapstructure:"mail"`
}

// TickInterval returns the scheduler scan interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickIntervalSeconds) * time.Second
}

// ExecuteTimeout returns the per-step execution timeout.
func (c *Config) ExecuteTimeout() time.Duration {
	return time.Duration(c.Scheduler.ExecuteTimeoutSeconds) * time.Second
}

// Throttle returns the default wait between campaign batches.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.Campaign.ThrottleSeconds) * time.Second
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if c.Scheduler.TickIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.tick_interval_seconds must be positive, got %d", c.Scheduler.TickIntervalSeconds)
	}
	if c.Scheduler.ExecuteTimeoutSeconds <= 0 {
		return fmt.Errorf("scheduler.execute_timeout_seconds must be positive, got %d", c.Scheduler.ExecuteTimeoutSeconds)
	}
	if c.Scheduler.MaxConcurrentExecutions <= 0 {
		return fmt.Errorf("scheduler.max_concurrent_executions must be positive, got %d", c.Scheduler.MaxConcurrentExecutions)
	}
	if c.Campaign.BatchSize <= 0 {
		return fmt.Errorf("campaign.batch_size must be positive, got %d", c.Campaign.BatchSize)
	}
	if c.Campaign.ThrottleSeconds < 0 {
		return fmt.Errorf("campaign.throttle_seconds must not be negative, got %d", c.Campaign.ThrottleSeconds)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("db.path", "outreach.db")
	v.SetDefault("sequences.dir", "")
	v.SetDefault("scheduler.tick_interval_seconds", 60)
	v.SetDefault("scheduler.execute_timeout_seconds", 30)
	v.SetDefault("scheduler.max_concurrent_executions", 10)
	v.SetDefault("campaign.batch_size", 5)
	v.SetDefault("campaign.throttle_seconds", 30)
	v.SetDefault("mail.unsubscribe_base_url", "https://homelistingai.com/unsubscribe")
}

// Load reads configuration from the named file, falling back to defaults
// when path is empty and no config file is found. Environment variables
// with the OUTREACH_ prefix override file values (OUTREACH_LOG_LEVEL,
// OUTREACH_CAMPAIGN_BATCH_SIZE, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("outreach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/outreach")
		v.AddConfigPath("/etc/outreach")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

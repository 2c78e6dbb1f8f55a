// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the headless Chrome process.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool     `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig controls navigation and remote-operation pacing.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// OpsPerSecond throttles remote CDP operations per session.
	// Zero disables throttling.
	OpsPerSecond float64 `mapstructure:"ops_per_second" yaml:"ops_per_second"`
}

// ResolverConfig tunes the resolve-act-verify engine.
type ResolverConfig struct {
	// MinScore is the lowest match score a candidate must clear.
	MinScore int `mapstructure:"min_score" yaml:"min_score"`
	// PhaseAttempts is how many times the full phase chain is re-run
	// when no phase finds a match, covering content that renders after
	// the page chrome.
	PhaseAttempts int `mapstructure:"phase_attempts" yaml:"phase_attempts"`
	// PhaseRetryInterval is the fixed delay between phase attempts.
	// Fixed, not exponential: the dominant failure mode is client-side
	// re-render, not server load.
	PhaseRetryInterval time.Duration `mapstructure:"phase_retry_interval" yaml:"phase_retry_interval"`
	// StabilizeAttempts bounds the scan-plan-act loop of the safe
	// interaction controller.
	StabilizeAttempts int `mapstructure:"stabilize_attempts" yaml:"stabilize_attempts"`
	// ScrollSettle is the wait after a corrective scroll before the
	// element is re-inspected.
	ScrollSettle time.Duration `mapstructure:"scroll_settle" yaml:"scroll_settle"`
	// DropdownSettle is the wait between opening a custom dropdown and
	// selecting from its revealed option list.
	DropdownSettle time.Duration `mapstructure:"dropdown_settle" yaml:"dropdown_settle"`
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "checkout-engine")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.post_load_wait", "2s")
	v.SetDefault("network.ops_per_second", 0.0)

	// -- Resolver --
	v.SetDefault("resolver.min_score", 30)
	v.SetDefault("resolver.phase_attempts", 3)
	v.SetDefault("resolver.phase_retry_interval", "500ms")
	v.SetDefault("resolver.stabilize_attempts", 3)
	v.SetDefault("resolver.scroll_settle", "1200ms")
	v.SetDefault("resolver.dropdown_settle", "1500ms")
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Resolver.MinScore <= 0 {
		return fmt.Errorf("resolver.min_score must be a positive integer")
	}
	if c.Resolver.PhaseAttempts <= 0 {
		return fmt.Errorf("resolver.phase_attempts must be a positive integer")
	}
	if c.Resolver.StabilizeAttempts <= 0 {
		return fmt.Errorf("resolver.stabilize_attempts must be a positive integer")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be positive")
	}
	if c.Network.OpsPerSecond < 0 {
		return fmt.Errorf("network.ops_per_second must not be negative")
	}
	return nil
}

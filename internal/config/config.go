// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Loop() LoopConfig
	Journal() JournalConfig
}

// Config holds the entire application configuration. Access goes through
// the Interface getters; the exported fields exist for viper unmarshaling.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	LoopCfg    LoopConfig    `mapstructure:"loop" yaml:"loop"`
	JournalCfg JournalConfig `mapstructure:"journal" yaml:"journal"`
}

// -- Interface Method Implementations --

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Loop() LoopConfig       { return c.LoopCfg }
func (c *Config) Journal() JournalConfig { return c.JournalCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TypingConfig tunes the simulated keystroke cadence used when submitting
// commands into the message composer. Durations are milliseconds feeding a
// normal distribution.
type TypingConfig struct {
	KeyHoldMeanMs    float64 `mapstructure:"key_hold_mean_ms" yaml:"key_hold_mean_ms"`
	KeyHoldStdDevMs  float64 `mapstructure:"key_hold_std_dev_ms" yaml:"key_hold_std_dev_ms"`
	InterKeyMeanMs   float64 `mapstructure:"inter_key_mean_ms" yaml:"inter_key_mean_ms"`
	InterKeyStdDevMs float64 `mapstructure:"inter_key_std_dev_ms" yaml:"inter_key_std_dev_ms"`
	InterKeyMinMs    float64 `mapstructure:"inter_key_min_ms" yaml:"inter_key_min_ms"`
}

// SelectorConfig names the DOM anchors of the message timeline. The remote
// UI ships new class hashes regularly, so both are overridable.
type SelectorConfig struct {
	// TimelineItem matches one visible message entry.
	TimelineItem string `mapstructure:"timeline_item" yaml:"timeline_item"`
	// Composer matches the editable message input box.
	Composer string `mapstructure:"composer" yaml:"composer"`
}

// BrowserConfig holds settings for the browser session hosting the timeline.
type BrowserConfig struct {
	Headless       bool           `mapstructure:"headless" yaml:"headless"`
	ChannelURL     string         `mapstructure:"channel_url" yaml:"channel_url"`
	UserDataDir    string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExecPath       string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent      string         `mapstructure:"user_agent" yaml:"user_agent"`
	LaunchTimeout  time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	ReadyTimeout   time.Duration  `mapstructure:"ready_timeout" yaml:"ready_timeout"`
	MinSendSpacing time.Duration  `mapstructure:"min_send_spacing" yaml:"min_send_spacing"`
	Typing         TypingConfig   `mapstructure:"typing" yaml:"typing"`
	Selectors      SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
}

// LoopConfig configures the control loop and its synchronization windows.
type LoopConfig struct {
	// CooldownSeconds is the minimum spacing between primary actions.
	CooldownSeconds float64 `mapstructure:"cooldown_seconds" yaml:"cooldown_seconds"`
	// ReplenishResource is the resource name bought in bulk after a
	// liquidation confirms.
	ReplenishResource string        `mapstructure:"replenish_resource" yaml:"replenish_resource"`
	SettleWindow      time.Duration `mapstructure:"settle_window" yaml:"settle_window"`
	HardTimeout       time.Duration `mapstructure:"hard_timeout" yaml:"hard_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ChallengeBuffer   time.Duration `mapstructure:"challenge_buffer" yaml:"challenge_buffer"`
}

// Cooldown returns the primary-action cooldown as a duration.
func (l LoopConfig) Cooldown() time.Duration {
	return time.Duration(l.CooldownSeconds * float64(time.Second))
}

// JournalConfig configures the cycle journal sinks.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	// PostgresDSN enables the optional database sink when non-empty. It is
	// normally supplied via FISHER_JOURNAL_PG_DSN rather than the file.
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"-"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "fisher")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	// Headless is off so the operator can complete the initial login; the
	// persistent profile keeps the session across restarts.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_dir", "~/.automatic-fisher/profile")
	v.SetDefault("browser.launch_timeout", "45s")
	v.SetDefault("browser.ready_timeout", "90s")
	v.SetDefault("browser.min_send_spacing", "1200ms")
	v.SetDefault("browser.typing.key_hold_mean_ms", 55.0)
	v.SetDefault("browser.typing.key_hold_std_dev_ms", 20.0)
	v.SetDefault("browser.typing.inter_key_mean_ms", 70.0)
	v.SetDefault("browser.typing.inter_key_std_dev_ms", 28.0)
	v.SetDefault("browser.typing.inter_key_min_ms", 35.0)
	v.SetDefault("browser.selectors.timeline_item", `li[id^="chat-messages-"]`)
	v.SetDefault("browser.selectors.composer", `div[role="textbox"][data-slate-editor="true"]`)

	// -- Loop --
	v.SetDefault("loop.cooldown_seconds", 3.5)
	v.SetDefault("loop.replenish_resource", "worms")
	v.SetDefault("loop.settle_window", "1500ms")
	v.SetDefault("loop.hard_timeout", "10s")
	v.SetDefault("loop.poll_interval", "100ms")
	v.SetDefault("loop.challenge_buffer", "1s")

	// -- Journal --
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "~/.automatic-fisher/journal.jsonl")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("journal.postgres_dsn", "FISHER_JOURNAL_PG_DSN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.LoopCfg.Validate(); err != nil {
		return fmt.Errorf("loop configuration invalid: %w", err)
	}
	if err := c.JournalCfg.Validate(); err != nil {
		return fmt.Errorf("journal configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings. The channel URL is checked by the
// run command instead, since commands that never open a browser do not
// need one.
func (b *BrowserConfig) Validate() error {
	if b.LaunchTimeout <= 0 {
		return fmt.Errorf("launch_timeout must be a positive duration")
	}
	if b.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be a positive duration")
	}
	if b.MinSendSpacing < 0 {
		return fmt.Errorf("min_send_spacing must not be negative")
	}
	if b.Selectors.TimelineItem == "" || b.Selectors.Composer == "" {
		return fmt.Errorf("selectors.timeline_item and selectors.composer are required")
	}
	return nil
}

// Validate checks the loop settings.
func (l *LoopConfig) Validate() error {
	if l.CooldownSeconds <= 0 {
		return fmt.Errorf("cooldown_seconds must be greater than 0")
	}
	if strings.TrimSpace(l.ReplenishResource) == "" {
		return fmt.Errorf("replenish_resource must not be empty")
	}
	if l.SettleWindow <= 0 {
		return fmt.Errorf("settle_window must be a positive duration")
	}
	if l.PollInterval <= 0 || l.PollInterval > l.SettleWindow {
		return fmt.Errorf("poll_interval must be positive and no longer than settle_window")
	}
	if l.HardTimeout < l.SettleWindow {
		return fmt.Errorf("hard_timeout must be at least settle_window")
	}
	if l.ChallengeBuffer < 0 {
		return fmt.Errorf("challenge_buffer must not be negative")
	}
	return nil
}

// Validate checks the journal settings.
func (j *JournalConfig) Validate() error {
	if j.Enabled && strings.TrimSpace(j.Path) == "" {
		return fmt.Errorf("path is required while the journal is enabled")
	}
	return nil
}

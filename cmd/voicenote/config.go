package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/voicenote/pkg/adapters/shell"
)

const (
	DefaultEnvPrefix = "VOICENOTE"

	DefaultDir        = "./notes"
	DefaultAdapter    = "fs"
	DefaultSource     = "tone"
	DefaultToneHz     = 440.0
	DefaultSampleRate = 44100
	DefaultChannels   = 1
)

// LogConfig controls where logs go. An empty File logs to stderr.
type LogConfig struct {
	File       string     `json:"file,omitempty"        yaml:"file,omitempty"        mapstructure:"file"`
	Level      slog.Level `json:"level"                 yaml:"level"                 mapstructure:"level"`
	MaxSizeMB  int        `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxBackups int        `json:"max_backups,omitempty" yaml:"max_backups,omitempty" mapstructure:"max_backups"`
	MaxAgeDays int        `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
}

// Config is the CLI configuration, read from defaults, an optional file,
// VOICENOTE_* environment variables and flags, in increasing priority.
type Config struct {
	Dir          string  `json:"dir"           yaml:"dir"           mapstructure:"dir"`
	Adapter      string  `json:"adapter"       yaml:"adapter"       mapstructure:"adapter"`
	RequireTitle bool    `json:"require_title" yaml:"require_title" mapstructure:"require_title"`
	DeleteAudio  bool    `json:"delete_audio"  yaml:"delete_audio"  mapstructure:"delete_audio"`
	DevSafety    bool    `json:"dev_safety"    yaml:"dev_safety"    mapstructure:"dev_safety"`
	EventBuffer  int     `json:"event_buffer"  yaml:"event_buffer"  mapstructure:"event_buffer"`
	SampleRate   int     `json:"sample_rate"   yaml:"sample_rate"   mapstructure:"sample_rate"`
	Channels     int     `json:"channels"      yaml:"channels"      mapstructure:"channels"`
	Source       string  `json:"source"        yaml:"source"        mapstructure:"source"`
	ToneHz       float64 `json:"tone_hz"       yaml:"tone_hz"       mapstructure:"tone_hz"`
	Speed        float64 `json:"speed"         yaml:"speed"         mapstructure:"speed"`

	RecordCommand []string      `json:"record_command" yaml:"record_command" mapstructure:"record_command"`
	PlayCommand   []string      `json:"play_command"   yaml:"play_command"   mapstructure:"play_command"`
	MaxDuration   time.Duration `json:"max_duration"   yaml:"max_duration"   mapstructure:"max_duration"`

	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`
}

// flagKeys are the configuration keys that can be overridden by root flags.
var flagKeys = []string{"dir", "adapter"}

// LoadConfig reads the configuration. path may be empty. When cmd is not nil,
// its flags named like a configuration key take precedence.
func LoadConfig(path string, cmd *cobra.Command) (*Config, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	defaults := map[string]any{
		"dir":              DefaultDir,
		"adapter":          DefaultAdapter,
		"require_title":    true,
		"delete_audio":     false,
		"dev_safety":       true,
		"event_buffer":     0,
		"sample_rate":      DefaultSampleRate,
		"channels":         DefaultChannels,
		"source":           DefaultSource,
		"tone_hz":          DefaultToneHz,
		"speed":            1.0,
		"record_command":   shell.DefaultRecordCommand,
		"play_command":     shell.DefaultPlayCommand,
		"max_duration":     "0s",
		"log.file":         "",
		"log.level":        "info",
		"log.max_size_mb":  10,
		"log.max_backups":  3,
		"log.max_age_days": 28,
	}
	for key, value := range defaults {
		_ = v.BindEnv(key)
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if cmd != nil {
		for _, key := range flagKeys {
			if flag := cmd.Flags().Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	// Load configuration into struct
	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	config := &Config{}
	if err := v.Unmarshal(config, viper.DecodeHook(decodeHooks)); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Source {
	case "tone", "silence", "stdin":
	default:
		return fmt.Errorf("unknown source %q (want tone, silence or stdin)", c.Source)
	}
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("invalid capture format: %d Hz, %d channels", c.SampleRate, c.Channels)
	}
	if c.Speed < 0 {
		return fmt.Errorf("speed must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/saynalabs/sayna/pkg/capture"
	"github.com/saynalabs/sayna/pkg/route"
	"github.com/saynalabs/sayna/pkg/session"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Input         InputConfig         `mapstructure:"input"`
	Route         RouteConfig         `mapstructure:"route"`
	Capture       CaptureConfig       `mapstructure:"capture"`
	Endpoint      EndpointConfig      `mapstructure:"endpoint"`
	Session       SessionConfig       `mapstructure:"session"`
	Dialog        DialogConfig        `mapstructure:"dialog"`
	Vendors       VendorsConfig       `mapstructure:"vendors"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type InputConfig struct {
	Device           string   `mapstructure:"device"`
	TriggerScanCodes []uint16 `mapstructure:"trigger_scan_codes"`
}

type RouteConfig struct {
	Card            string `mapstructure:"card"`
	CaptureProfile  string `mapstructure:"capture_profile"`
	PlaybackProfile string `mapstructure:"playback_profile"`
	ToOffMS         int    `mapstructure:"to_off_ms"`
	ToCaptureMS     int    `mapstructure:"to_capture_ms"`
	ToPlaybackMS    int    `mapstructure:"to_playback_ms"`
	StartupResetMS  int    `mapstructure:"startup_reset_ms"`
	PactlTimeoutMS  int    `mapstructure:"pactl_timeout_ms"`
}

type CaptureConfig struct {
	Source        string `mapstructure:"source"`
	Device        string `mapstructure:"device"`
	SampleRate    int    `mapstructure:"sample_rate"`
	Channels      int    `mapstructure:"channels"`
	FrameMS       int    `mapstructure:"frame_ms"`
	MaxDurationMS int    `mapstructure:"max_duration_ms"`
}

type EndpointConfig struct {
	SilenceTimeoutMS int     `mapstructure:"silence_timeout_ms"`
	EnergyEnter      float64 `mapstructure:"energy_enter"`
	EnergyLeave      float64 `mapstructure:"energy_leave"`
}

type SessionConfig struct {
	MinUtteranceMS  int `mapstructure:"min_utterance_ms"`
	DialogTimeoutMS int `mapstructure:"dialog_timeout_ms"`
	ResetRetries    int `mapstructure:"reset_retries"`
	ResetBackoffMS  int `mapstructure:"reset_backoff_ms"`
	DrainTimeoutMS  int `mapstructure:"drain_timeout_ms"`
}

type DialogConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	Model        string  `mapstructure:"model"`
	APIKey       string  `mapstructure:"api_key"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	TimeoutMS    int     `mapstructure:"timeout_ms"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	Transcriber VendorConfig `mapstructure:"transcriber"`
	Speaker     VendorConfig `mapstructure:"speaker"`
}

type ObservabilityConfig struct {
	ArtifactsDir string `mapstructure:"artifacts_dir"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("input.device", "/dev/input/event0")
	v.SetDefault("input.trigger_scan_codes", []int{200, 201})
	v.SetDefault("route.capture_profile", "handsfree_head_unit")
	v.SetDefault("route.playback_profile", "a2dp_sink")
	v.SetDefault("route.to_off_ms", 400)
	v.SetDefault("route.to_capture_ms", 800)
	v.SetDefault("route.to_playback_ms", 700)
	v.SetDefault("route.startup_reset_ms", 1000)
	v.SetDefault("route.pactl_timeout_ms", 5000)
	v.SetDefault("capture.source", "parec")
	v.SetDefault("capture.sample_rate", 16000)
	v.SetDefault("capture.channels", 1)
	v.SetDefault("capture.frame_ms", 30)
	v.SetDefault("capture.max_duration_ms", 30000)
	v.SetDefault("endpoint.silence_timeout_ms", 1000)
	v.SetDefault("endpoint.energy_enter", 0.015)
	v.SetDefault("endpoint.energy_leave", 0.008)
	v.SetDefault("session.min_utterance_ms", 300)
	v.SetDefault("session.dialog_timeout_ms", 60000)
	v.SetDefault("session.reset_retries", 3)
	v.SetDefault("session.reset_backoff_ms", 1000)
	v.SetDefault("session.drain_timeout_ms", 10000)
	v.SetDefault("dialog.max_tokens", 200)
	v.SetDefault("dialog.temperature", 0.1)
	v.SetDefault("dialog.timeout_ms", 60000)
	v.SetDefault("observability.artifacts_dir", "")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Device) == "" {
		return fmt.Errorf("input.device is required")
	}
	if len(c.Input.TriggerScanCodes) == 0 {
		return fmt.Errorf("input.trigger_scan_codes is required")
	}
	if strings.TrimSpace(c.Route.Card) == "" {
		return fmt.Errorf("route.card is required")
	}
	if strings.TrimSpace(c.Vendors.Transcriber.Provider) == "" {
		return fmt.Errorf("vendors.transcriber.provider is required")
	}
	if strings.TrimSpace(c.Vendors.Speaker.Provider) == "" {
		return fmt.Errorf("vendors.speaker.provider is required")
	}
	if strings.TrimSpace(c.Dialog.BaseURL) == "" {
		return fmt.Errorf("dialog.base_url is required")
	}
	switch c.Capture.Source {
	case "parec", "portaudio":
	default:
		return fmt.Errorf("capture.source must be parec or portaudio, got %q", c.Capture.Source)
	}
	return nil
}

// RouteDelays converts the millisecond fields into the controller's settle
// intervals.
func (c *Config) RouteDelays() route.Delays {
	return route.Delays{
		ToOff:        time.Duration(c.Route.ToOffMS) * time.Millisecond,
		ToCapture:    time.Duration(c.Route.ToCaptureMS) * time.Millisecond,
		ToPlayback:   time.Duration(c.Route.ToPlaybackMS) * time.Millisecond,
		StartupReset: time.Duration(c.Route.StartupResetMS) * time.Millisecond,
	}
}

func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		SampleRate:    c.Capture.SampleRate,
		Channels:      c.Capture.Channels,
		FrameDuration: time.Duration(c.Capture.FrameMS) * time.Millisecond,
		MaxDuration:   time.Duration(c.Capture.MaxDurationMS) * time.Millisecond,
	}
}

func (c *Config) SessionConfig() session.Config {
	return session.Config{
		MinUtterance:   time.Duration(c.Session.MinUtteranceMS) * time.Millisecond,
		SilenceTimeout: time.Duration(c.Endpoint.SilenceTimeoutMS) * time.Millisecond,
		DialogTimeout:  time.Duration(c.Session.DialogTimeoutMS) * time.Millisecond,
		ResetRetries:   c.Session.ResetRetries,
		ResetBackoff:   time.Duration(c.Session.ResetBackoffMS) * time.Millisecond,
	}
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.Transcriber.Settings = expandSettings(cfg.Vendors.Transcriber.Settings)
	cfg.Vendors.Speaker.Settings = expandSettings(cfg.Vendors.Speaker.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				val := v.MapIndex(key)
				expanded := os.ExpandEnv(val.String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}

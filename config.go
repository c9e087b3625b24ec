package bones

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime defaults a Factory applies to the armatures it
// builds. Decode it from YAML with ParseConfig or LoadConfig:
//
//	cache_frame_rate: 24
//	default_fade_in_time: 0.1
//	fade_curve: inOutSine
//	reset_to_pose: true
//	time_scale: 1
//	debug: false
type Config struct {
	// CacheFrameRate > 0 enables the frame cache for every armature built.
	CacheFrameRate float64 `yaml:"cache_frame_rate"`
	// DefaultFadeInTime is the fade used by Animation.Play, in seconds.
	DefaultFadeInTime float64 `yaml:"default_fade_in_time"`
	// FadeCurve names the easing of fade weight ramps (see FadeCurve).
	FadeCurve string `yaml:"fade_curve"`
	// ResetToPose drives bones and slots an animation does not key back to
	// their bind pose.
	ResetToPose bool `yaml:"reset_to_pose"`
	// TimeScale is the initial Animation.TimeScale. NewFactory replaces
	// values <= 0 with 1.
	TimeScale float64 `yaml:"time_scale"`
	// Debug turns on package debug mode.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the config used when none is given.
func DefaultConfig() Config {
	return Config{
		FadeCurve:   "linear",
		ResetToPose: true,
		TimeScale:   1,
	}
}

// ParseConfig decodes YAML into a Config. Keys missing from data keep
// their DefaultConfig values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.CacheFrameRate < 0 {
		return fmt.Errorf("cache_frame_rate %v: %w", c.CacheFrameRate, errNegative)
	}
	if c.DefaultFadeInTime < 0 {
		return fmt.Errorf("default_fade_in_time %v: %w", c.DefaultFadeInTime, errNegative)
	}
	if _, err := FadeCurve(c.FadeCurve); err != nil {
		return err
	}
	return nil
}

var errNegative = errors.New("must not be negative")

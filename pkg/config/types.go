package config

import "time"

// Config is the promised daemon configuration
type Config struct {
	LogLevel     string          `yaml:"log_level"`
	HTTPAddr     string          `yaml:"http_addr"`
	GRPCAddr     string          `yaml:"grpc_addr"`
	NetworkPath  string          `yaml:"network_path,omitempty"`
	RulesPath    string          `yaml:"rules_path,omitempty"`
	ScenarioPath string          `yaml:"scenario_path,omitempty"` // initial scenario
	Story        *StoryConfig    `yaml:"story,omitempty"`
	Activity     *ActivityConfig `yaml:"activity,omitempty"`
}

// StoryConfig selects and paces the story-mode script
type StoryConfig struct {
	Path  string  `yaml:"path,omitempty"` // empty uses the built-in script
	Speed float64 `yaml:"speed"`          // 1 = real time, 2 = twice as fast
}

// ActivityConfig controls the rotating activity feed
type ActivityConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"` // e.g. "2500ms"
	Seed     int64  `yaml:"seed,omitempty"`
	History  int    `yaml:"history"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		Story:    &StoryConfig{Speed: 1},
		Activity: &ActivityConfig{
			Enabled:  true,
			Interval: "2500ms",
			History:  50,
		},
	}
}

// GetInterval parses the interval string to time.Duration
func (a *ActivityConfig) GetInterval() (time.Duration, error) {
	return time.ParseDuration(a.Interval)
}

package config

import (
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

// LoadConfig loads and parses a daemon configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadNetwork loads a network file, or the built-in network when path is empty
func LoadNetwork(path string) (*Network, error) {
	if path == "" {
		return DefaultNetwork(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file %s: %w", path, err)
	}
	n, err := ParseNetworkYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse network file %s: %w", path, err)
	}
	return n, nil
}

// LoadScenario loads a scenario file, or the default scenario when path is empty
func LoadScenario(path string) (models.ScenarioConfig, error) {
	if path == "" {
		return models.DefaultScenario(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ScenarioConfig{}, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenario, err := ParseScenarioYAML(data)
	if err != nil {
		return models.ScenarioConfig{}, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	return scenario, nil
}

// LoadStory loads a story file, or the built-in story when path is empty
func LoadStory(path string) (*Story, error) {
	if path == "" {
		return DefaultStory(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file %s: %w", path, err)
	}
	s, err := ParseStoryYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse story file %s: %w", path, err)
	}
	return s, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if cfg.HTTPAddr == "" && cfg.GRPCAddr == "" {
		return fmt.Errorf("at least one of http_addr or grpc_addr must be set")
	}

	if cfg.Story != nil && cfg.Story.Speed <= 0 {
		return fmt.Errorf("story speed must be positive, got %f", cfg.Story.Speed)
	}

	if cfg.Activity != nil && cfg.Activity.Enabled {
		interval, err := cfg.Activity.GetInterval()
		if err != nil {
			return fmt.Errorf("invalid activity interval %s: %w", cfg.Activity.Interval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("activity interval must be positive, got %s", cfg.Activity.Interval)
		}
		if cfg.Activity.History <= 0 {
			return fmt.Errorf("activity history must be positive, got %d", cfg.Activity.History)
		}
	}

	return nil
}

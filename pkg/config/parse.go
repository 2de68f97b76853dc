package config

import (
	"fmt"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"gopkg.in/yaml.v3"
)

// ParseConfigYAML parses a daemon Config from YAML bytes and validates it.
// Fields missing from the document keep their DefaultConfig values.
func ParseConfigYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// ParseScenarioYAML parses a scenario document and validates it.
// Fields missing from the document keep their default values.
func ParseScenarioYAML(data []byte) (models.ScenarioConfig, error) {
	scenario := models.DefaultScenario()
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return models.ScenarioConfig{}, fmt.Errorf("failed to parse scenario yaml: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return models.ScenarioConfig{}, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenarioYAMLString parses a scenario from a YAML string and validates it.
func ParseScenarioYAMLString(yamlText string) (models.ScenarioConfig, error) {
	return ParseScenarioYAML([]byte(yamlText))
}

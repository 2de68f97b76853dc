package config

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed story.yaml
var defaultStoryYAML []byte

// Story is a scripted sequence of timed scenario changes
type Story struct {
	Name  string      `yaml:"name"`
	Steps []StoryStep `yaml:"steps"`
}

// StoryStep is one timed change. Reset runs first, then Set, then
// ApplyRecommendations.
type StoryStep struct {
	At                   string         `yaml:"at"` // offset from start, e.g. "3s"
	Message              string         `yaml:"message"`
	Reset                bool           `yaml:"reset,omitempty"`
	Set                  []models.Delta `yaml:"set,omitempty"`
	ApplyRecommendations bool           `yaml:"apply_recommendations,omitempty"`
}

// GetAt parses the step offset
func (s *StoryStep) GetAt() (time.Duration, error) {
	return time.ParseDuration(s.At)
}

// DefaultStory returns the built-in walkthrough
func DefaultStory() *Story {
	s, err := ParseStoryYAML(defaultStoryYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded story is invalid: %v", err))
	}
	return s
}

// ParseStoryYAML parses a Story from YAML bytes and validates it.
func ParseStoryYAML(data []byte) (*Story, error) {
	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse story yaml: %w", err)
	}
	if err := validateStory(&s); err != nil {
		return nil, fmt.Errorf("invalid story: %w", err)
	}
	return &s, nil
}

func validateStory(s *Story) error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step must be defined")
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		at, err := step.GetAt()
		if err != nil {
			return fmt.Errorf("step %d: invalid at %q: %w", i, step.At, err)
		}
		if at < 0 {
			return fmt.Errorf("step %d: at cannot be negative", i)
		}
		if !step.Reset && len(step.Set) == 0 && !step.ApplyRecommendations {
			return fmt.Errorf("step %d: must reset, set fields, or apply recommendations", i)
		}
		for j, d := range step.Set {
			if err := d.Validate(); err != nil {
				return fmt.Errorf("step %d, change %d: %w", i, j, err)
			}
		}
	}
	return nil
}

package recommend

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"github.com/diegoholiveira/jsonlogic/v3"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// ErrInvalidRule is returned for a rule that cannot be compiled
var ErrInvalidRule = errors.New("invalid rule")

// Rule is one row of the recommendation table
type Rule struct {
	ID     string         `yaml:"id" json:"id"`
	Title  string         `yaml:"title" json:"title"`
	Detail string         `yaml:"detail" json:"detail"`
	Impact string         `yaml:"impact" json:"impact"`
	When   map[string]any `yaml:"when" json:"when"`
	Apply  []models.Delta `yaml:"apply" json:"apply"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules parses a rule file and compiles it into an Engine
func ParseRules(data []byte) (*Engine, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}
	return NewEngine(f.Rules)
}

// LoadRules loads a rule file, or the built-in rules when path is empty
func LoadRules(path string) (*Engine, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	e, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return e, nil
}

// compile validates r and renders its condition as JSONLogic
func compile(r Rule) ([]byte, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidRule)
	}
	if r.Title == "" {
		return nil, fmt.Errorf("%w: rule %s: title cannot be empty", ErrInvalidRule, r.ID)
	}
	if len(r.When) == 0 {
		return nil, fmt.Errorf("%w: rule %s: when cannot be empty", ErrInvalidRule, r.ID)
	}
	if len(r.Apply) == 0 {
		return nil, fmt.Errorf("%w: rule %s: apply cannot be empty", ErrInvalidRule, r.ID)
	}
	for i, d := range r.Apply {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %s, change %d: %v", ErrInvalidRule, r.ID, i, err)
		}
	}

	logic, err := json.Marshal(r.When)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s: %v", ErrInvalidRule, r.ID, err)
	}
	if !jsonlogic.IsValid(bytes.NewReader(logic)) {
		return nil, fmt.Errorf("%w: rule %s: when is not valid JSONLogic", ErrInvalidRule, r.ID)
	}
	return logic, nil
}

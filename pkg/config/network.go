package config

import (
	_ "embed"
	"fmt"

	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed network.yaml
var defaultNetworkYAML []byte

// Network is the static reference data: distribution nodes and carriers
type Network struct {
	Nodes    []models.DistributionNode `yaml:"nodes" json:"nodes"`
	Carriers []models.Carrier          `yaml:"carriers" json:"carriers"`
}

// DefaultNetwork returns the built-in illustrative network
func DefaultNetwork() *Network {
	n, err := ParseNetworkYAML(defaultNetworkYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded network is invalid: %v", err))
	}
	return n
}

// ParseNetworkYAML parses a Network from YAML bytes and validates it.
func ParseNetworkYAML(data []byte) (*Network, error) {
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse network yaml: %w", err)
	}
	if err := validateNetwork(&n); err != nil {
		return nil, fmt.Errorf("invalid network: %w", err)
	}
	return &n, nil
}

// ParseNetworkYAMLString parses a Network from a YAML string and validates it.
func ParseNetworkYAMLString(yamlText string) (*Network, error) {
	return ParseNetworkYAML([]byte(yamlText))
}

func validateNetwork(n *Network) error {
	if len(n.Nodes) == 0 {
		return fmt.Errorf("at least one node must be defined")
	}
	nodeIDs := make(map[string]bool)
	for _, node := range n.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node id cannot be empty")
		}
		if nodeIDs[node.ID] {
			return fmt.Errorf("duplicate node id: %s", node.ID)
		}
		nodeIDs[node.ID] = true
		if !node.Kind.Valid() {
			return fmt.Errorf("node %s: invalid kind %s (must be MicroFulfillment, RegionalCenter, or Store)", node.ID, node.Kind)
		}
		if node.CapacityPerHour <= 0 {
			return fmt.Errorf("node %s: capacity_per_hour must be positive", node.ID)
		}
		if node.DemandPerHour <= 0 {
			return fmt.Errorf("node %s: demand_per_hour must be positive", node.ID)
		}
	}

	if len(n.Carriers) == 0 {
		return fmt.Errorf("at least one carrier must be defined")
	}
	names := make(map[string]bool)
	for _, c := range n.Carriers {
		if c.Name == "" {
			return fmt.Errorf("carrier name cannot be empty")
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate carrier name: %s", c.Name)
		}
		names[c.Name] = true
		if c.Kind != models.CarrierKindParcel && c.Kind != models.CarrierKindCrowd {
			return fmt.Errorf("carrier %s: invalid kind %s (must be parcel or crowd)", c.Name, c.Kind)
		}
		if c.OnTimeProb < 0 || c.OnTimeProb > 1 {
			return fmt.Errorf("carrier %s: on_time_prob must be between 0 and 1, got %f", c.Name, c.OnTimeProb)
		}
		if c.CostPerOrder <= 0 {
			return fmt.Errorf("carrier %s: cost_per_order must be positive", c.Name)
		}
		if c.DailyCapacity <= 0 {
			return fmt.Errorf("carrier %s: daily_capacity must be positive", c.Name)
		}
	}
	return nil
}

package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"mithril/internal/config"
)

// LoadConfigFile reads config from a yaml file. Used when CONFIG_FILE is set;
// the env-driven config.Load is the default path.
func LoadConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the run settings that are not protocol parameters.
type Config struct {
	// OutputDir is where the GML files are written.
	OutputDir string `yaml:"output_dir,omitempty"`
	// Seed is the base seed of the simulation PRNG; run i of a batch
	// uses Seed + i - 1.
	Seed int64 `yaml:"seed,omitempty"`
	// Verbosity is the log level, 0 (crit) to 5 (trace).
	Verbosity int `yaml:"verbosity,omitempty"`
}

// DefaultConfig returns the settings used when no configuration file
// is given.
func DefaultConfig() Config {
	return Config{
		OutputDir: "out",
		Seed:      1,
		Verbosity: 3,
	}
}

// LoadConfig reads and parses a YAML configuration file. Fields the
// file leaves unset keep their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to process config file '%s': %w", path, err)
	}
	return config, nil
}

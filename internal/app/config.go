package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LatticePath string // .hcl file or directory with lattice descriptions
	LatticeName string // lattice to translate; may be empty when unambiguous
	OptionsPath string // optional YAML file with translation options

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.LatticePath == "" {
		return nil, errors.New("LatticePath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}

package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RulesPath string // rule document file or directory
	Format    string // "hcl" or "yaml"

	Module     string   // module code to build
	Focus      string   // optional unit id/code to report the neighborhood of
	Objectives []string // optional objective restriction
	Strict     bool     // abort the build on the first malformed token

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config value.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RulesPath == "" {
		return nil, errors.New("RulesPath is a required configuration field and cannot be empty")
	}
	if cfg.Module == "" {
		return nil, errors.New("Module is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

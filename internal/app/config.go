package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // .hcl file or directory

	// Threads is the worker pool size. Zero picks a default.
	Threads int
	// Passes is the number of passes to run. Zero runs until the context is
	// cancelled.
	Passes   int
	Interval time.Duration

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	MonitorURL      string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Threads < 0 {
		return nil, errors.New("threads cannot be negative")
	}
	if cfg.Passes < 0 {
		return nil, errors.New("passes cannot be negative")
	}
	if cfg.Interval < 0 {
		return nil, errors.New("interval cannot be negative")
	}
	return &cfg, nil
}

package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type demoConfig struct {
	Demo struct {
		TickIntervalSeconds int `yaml:"tick_interval_seconds"`
		FailEvery           int `yaml:"fail_every"`
	} `yaml:"demo"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func (c *demoConfig) tickInterval() time.Duration {
	if c.Demo.TickIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.Demo.TickIntervalSeconds) * time.Second
}

// loadConfig reads the yaml config at path. A missing file is not an
// error; the demo then runs on defaults.
func loadConfig(path string) (*demoConfig, error) {
	cfg := &demoConfig{}
	cfg.Monitoring.HealthCheckPort = 8090
	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	if path == "" {
		path = "configs/demo.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

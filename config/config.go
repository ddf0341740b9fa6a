package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// AppVersion is the installed application version. The storage cache manager
// wipes app storage when this no longer matches the persisted marker.
const AppVersion = "2.0.0"

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// Path of the local sqlite file backing the key/value store.
		Path string `yaml:"path"`
		// CapacityBytes is the assumed quota ceiling for the store.
		CapacityBytes int64 `yaml:"capacity_bytes"`
		// RecoveryPercent is the usage target auto-eviction drives towards
		// when the monitor reports critical.
		RecoveryPercent int `yaml:"recovery_percent"`
		// MonitorIntervalSeconds is the quota poll cadence.
		MonitorIntervalSeconds int `yaml:"monitor_interval_seconds"`
	} `yaml:"storage"`
	Autosave struct {
		// IntervalSeconds is the debounce window between the last observed
		// state change and the write.
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"autosave"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`
	Services struct {
		// BaseURL of the deployed proxy functions (research-case,
		// generate-script, generate-storyboard, generate-voiceover,
		// render-video, check-render-status).
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Retry          struct {
			MaxAttempts    int `yaml:"max_attempts"`
			InitialDelayMS int `yaml:"initial_delay_ms"`
			MaxDelayMS     int `yaml:"max_delay_ms"`
		} `yaml:"retry"`
	} `yaml:"services"`
}

// Default returns the config used when a field is absent from the YAML file.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = ":8080"
	cfg.Storage.Path = "data/studio.db"
	cfg.Storage.CapacityBytes = 5 * 1024 * 1024
	cfg.Storage.RecoveryPercent = 70
	cfg.Storage.MonitorIntervalSeconds = 30
	cfg.Autosave.IntervalSeconds = 10
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Services.TimeoutSeconds = 60
	cfg.Services.Retry.MaxAttempts = 3
	cfg.Services.Retry.InitialDelayMS = 1000
	cfg.Services.Retry.MaxDelayMS = 10000
	return cfg
}

// Load reads the YAML config at path, filling missing fields with defaults.
// A missing file is not an error: the defaults run as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	d := Default()
	if c.Server.Port == "" {
		c.Server.Port = d.Server.Port
	}
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
	}
	if c.Storage.CapacityBytes <= 0 {
		c.Storage.CapacityBytes = d.Storage.CapacityBytes
	}
	if c.Storage.RecoveryPercent <= 0 || c.Storage.RecoveryPercent > 100 {
		c.Storage.RecoveryPercent = d.Storage.RecoveryPercent
	}
	if c.Storage.MonitorIntervalSeconds <= 0 {
		c.Storage.MonitorIntervalSeconds = d.Storage.MonitorIntervalSeconds
	}
	if c.Autosave.IntervalSeconds <= 0 {
		c.Autosave.IntervalSeconds = d.Autosave.IntervalSeconds
	}
	if c.Services.TimeoutSeconds <= 0 {
		c.Services.TimeoutSeconds = d.Services.TimeoutSeconds
	}
	if c.Services.Retry.MaxAttempts <= 0 {
		c.Services.Retry.MaxAttempts = d.Services.Retry.MaxAttempts
	}
	if c.Services.Retry.InitialDelayMS <= 0 {
		c.Services.Retry.InitialDelayMS = d.Services.Retry.InitialDelayMS
	}
	if c.Services.Retry.MaxDelayMS <= 0 {
		c.Services.Retry.MaxDelayMS = d.Services.Retry.MaxDelayMS
	}
}

func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Autosave.IntervalSeconds) * time.Second
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Storage.MonitorIntervalSeconds) * time.Second
}

func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Services.TimeoutSeconds) * time.Second
}

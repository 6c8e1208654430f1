package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig                `json:"app" yaml:"app"`
	Browser  BrowserConfig            `json:"browser" yaml:"browser"`
	Env      EnvConfig                `json:"env" yaml:"env"`
	Gateways map[string]GatewayConfig `json:"gateways" yaml:"gateways"`
	Store    StoreConfig              `json:"store" yaml:"store"`
	Metrics  MetricsConfig            `json:"metrics" yaml:"metrics"`
	Tracing  TracingConfig            `json:"tracing" yaml:"tracing"`
	Schedule ScheduleConfig           `json:"schedule" yaml:"schedule"`
	Policy   PolicyConfig             `json:"policy" yaml:"policy"`
}

type AppConfig struct {
	Name string `json:"name" yaml:"name"`
	// Journey is the registered journey to run when no flag picks one.
	Journey string `json:"journey" yaml:"journey"`
	// StartURL overrides the journey's default start page.
	StartURL       string `json:"start_url" yaml:"start_url"`
	DefaultTimeout string `json:"default_timeout" yaml:"default_timeout"`
	EventLog       string `json:"event_log" yaml:"event_log"`
}

type BrowserConfig struct {
	Headless  bool           `json:"headless" yaml:"headless"`
	UserAgent string         `json:"user_agent" yaml:"user_agent"`
	ExecPath  string         `json:"exec_path" yaml:"exec_path"`
	RemoteURL string         `json:"remote_url" yaml:"remote_url"`
	Flags     map[string]any `json:"flags" yaml:"flags"`
}

// EnvConfig is the monitor descriptor exposed to journeys.
type EnvConfig struct {
	JobID       int    `json:"job_id" yaml:"job_id"`
	MonitorType string `json:"monitor_type" yaml:"monitor_type"`
	APIVersion  string `json:"api_version" yaml:"api_version"`
	Location    string `json:"location" yaml:"location"`
	ProxyHost   string `json:"proxy_host" yaml:"proxy_host"`
	ProxyPort   int    `json:"proxy_port" yaml:"proxy_port"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	ChatID  string `json:"chat_id" yaml:"chat_id"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type StoreConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Output  string `json:"output" yaml:"output"`
}

type ScheduleConfig struct {
	Interval string `json:"interval" yaml:"interval"`
}

type PolicyConfig struct {
	DeniedHosts []string `json:"denied_hosts" yaml:"denied_hosts"`
	DeniedURLs  []string `json:"denied_urls" yaml:"denied_urls"`
}

// Default returns the configuration used when no file is given. It mirrors
// the local simulator: a visible Chrome and an unset monitor descriptor.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:           "synthetics",
			Journey:        "newrelic-search",
			DefaultTimeout: "5s",
			EventLog:       filepath.Join("logs", "journey.jsonl"),
		},
		Env: EnvConfig{
			JobID:     -1,
			ProxyPort: 80,
		},
		Store: StoreConfig{
			Path: filepath.Join("data", "runs.db"),
		},
	}
}

// Load reads a JSON or YAML (by extension) config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the duration fields parse.
func (c *Config) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	return nil
}

// Timeout is the default element wait.
func (c *Config) Timeout() (time.Duration, error) {
	if c.App.DefaultTimeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(c.App.DefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid app.default_timeout: %w", err)
	}
	return d, nil
}

// Interval is the schedule period; zero means run once.
func (c *Config) Interval() (time.Duration, error) {
	if c.Schedule.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule.interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid schedule.interval: %s is negative", d)
	}
	return d, nil
}

// GetGateway returns the named gateway config if enabled
func (c *Config) GetGateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}

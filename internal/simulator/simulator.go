// Package simulator stands in for the managed monitoring runtime during
// local development: it launches its own Chrome session and hands journeys
// the same environment the platform would.
package simulator

import (
	"context"
	"fmt"

	"github.com/rahul/synthetics/internal/driver"
	"github.com/rahul/synthetics/internal/governance"
	"github.com/rahul/synthetics/internal/journey"
	"github.com/rahul/synthetics/internal/observability"
	"github.com/rahul/synthetics/pkg/config"
)

// UserAgent is the user agent the platform's browser reports.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/72.0.3626.121 Safari/537.36 x "

// Capabilities are the fixed session capabilities of the platform browser.
func Capabilities() driver.Capabilities {
	return driver.Capabilities{
		"browserName": "chrome",
		"loggingPrefs": map[string]string{
			"driver":  "DEBUG",
			"browser": "DEBUG",
		},
	}
}

// Descriptor converts the configured monitor descriptor.
func Descriptor(c config.EnvConfig) journey.Descriptor {
	return journey.Descriptor{
		JobID:       c.JobID,
		MonitorType: c.MonitorType,
		APIVersion:  c.APIVersion,
		Location:    c.Location,
		ProxyHost:   c.ProxyHost,
		ProxyPort:   c.ProxyPort,
	}
}

// NewPolicy builds the navigation policy from config.
func NewPolicy(c config.PolicyConfig) (*governance.DefaultPolicyEngine, error) {
	engine := governance.NewDefaultPolicyEngine()
	for _, h := range c.DeniedHosts {
		engine.DenyHost(h)
	}
	for _, p := range c.DeniedURLs {
		if err := engine.DenyURL(p); err != nil {
			return nil, fmt.Errorf("invalid policy.denied_urls pattern %q: %w", p, err)
		}
	}
	return engine, nil
}

// Simulator owns the local browser session.
type Simulator struct {
	cfg    *config.Config
	log    *observability.Logger
	chrome *driver.Chrome
}

func New(cfg *config.Config, log *observability.Logger) (*Simulator, error) {
	policy, err := NewPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	ua := cfg.Browser.UserAgent
	if ua == "" {
		ua = UserAgent
	}

	chrome := driver.NewChrome(driver.ChromeOptions{
		Headless:     cfg.Browser.Headless,
		UserAgent:    ua,
		ExecPath:     cfg.Browser.ExecPath,
		RemoteURL:    cfg.Browser.RemoteURL,
		Flags:        cfg.Browser.Flags,
		Capabilities: Capabilities(),
		Policy:       policy,
	})

	return &Simulator{cfg: cfg, log: log, chrome: chrome}, nil
}

// Start launches the browser and returns the journey environment.
func (s *Simulator) Start(ctx context.Context) (*journey.Env, error) {
	if err := s.chrome.Start(ctx); err != nil {
		return nil, err
	}
	return NewEnv(s.chrome, s.cfg, s.log), nil
}

// Close shuts the browser down.
func (s *Simulator) Close() error {
	return s.chrome.Close()
}

// NewEnv wires d into the environment a journey expects.
func NewEnv(d driver.Driver, cfg *config.Config, log *observability.Logger) *journey.Env {
	ua := cfg.Browser.UserAgent
	if ua == "" {
		ua = UserAgent
	}
	browser := NewBrowser(d, log)
	return &journey.Env{
		Driver:     browser,
		Descriptor: Descriptor(cfg.Env),
		Insights:   NewInsights(log),
		Headers:    browser,
		HTTP:       NewHTTPClient(ua),
	}
}

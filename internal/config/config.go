// Package config holds the read-only configuration shared by the console
// server, the CLI and the e2e helpers.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all configuration for hac-console
type Config struct {
	// BaseURL is the console UI base URL (HAC_BASE_URL)
	BaseURL string `koanf:"base_url"`

	// CleanNamespace enables namespace cleanup in e2e runs (CLEAN_NAMESPACE)
	CleanNamespace bool `koanf:"clean_namespace"`

	// Namespace is the workspace namespace the console operates on
	Namespace string `koanf:"namespace"`

	// Kubeconfig is an explicit kubeconfig path; empty uses default loading rules
	Kubeconfig string `koanf:"kubeconfig"`

	// ListenAddr is the address the console server binds to
	ListenAddr string `koanf:"listen_addr"`

	GitHub  GitHubConfig  `koanf:"github"`
	Tracing TracingConfig `koanf:"tracing"`
}

// GitHubConfig configures the GitHub REST client
type GitHubConfig struct {
	// Token is the bearer token sent with every request (GH_TOKEN)
	Token string `koanf:"token"`

	// APIURL is the REST API root
	APIURL string `koanf:"api_url"`

	// Org owns repositories created by the e2e suite
	Org string `koanf:"org"`

	// APIVersion is sent as X-GitHub-Api-Version
	APIVersion string `koanf:"api_version"`

	// Branch is the branch rewritten by folder deletion
	Branch string `koanf:"branch"`

	// RequestTimeout bounds every single request
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RequestsPerSecond throttles outgoing requests client-side
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// TracingConfig configures OTLP trace export
type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	TLSCAPath   string `koanf:"tls_ca_path"`
	TLSInsecure bool   `koanf:"tls_insecure"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseURL:    "http://localhost:8080",
		Namespace:  "default",
		ListenAddr: ":8080",
		GitHub: GitHubConfig{
			APIURL:            "https://api.github.com",
			Org:               "redhat-hac-qe",
			APIVersion:        "2022-11-28",
			Branch:            "main",
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 10,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return NewConfigError("base_url must not be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewConfigError(fmt.Sprintf("base_url %q must be an absolute URL", c.BaseURL))
	}

	if c.Namespace == "" {
		return NewConfigError("namespace must not be empty")
	}

	if err := c.GitHub.Validate(); err != nil {
		return err
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}
	return nil
}

// Validate checks the GitHub client settings
func (g *GitHubConfig) Validate() error {
	if _, err := url.Parse(g.APIURL); err != nil || g.APIURL == "" {
		return NewConfigError(fmt.Sprintf("github.api_url %q is invalid", g.APIURL))
	}
	if g.RequestTimeout <= 0 {
		return NewConfigError("github.request_timeout must be positive")
	}
	if g.RequestsPerSecond <= 0 {
		return NewConfigError("github.requests_per_second must be positive")
	}
	if g.Branch == "" {
		return NewConfigError("github.branch must not be empty")
	}
	return nil
}

// Origin returns scheme://host of BaseURL.
func (c *Config) Origin() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base_url: %w", err)
	}
	return u.Scheme + "://" + u.Host, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}

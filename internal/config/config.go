// Package config defines the configuration surface: profile selection,
// approval policy, and network limits. Config is loaded from YAML with
// defaults applied field by field.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicyVersion identifies the detection vocabulary and decision tables
// in effect. It is stamped on every guard result and audit event.
const PolicyVersion = "0.1.0-dev"

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "balanced"

// ConfigError reports a validation failure naming the first offending
// field.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ApprovalPolicy controls when new sources need a human decision.
type ApprovalPolicy struct {
	RequireApproval   bool     `yaml:"require_approval"`
	AllowedWebDomains []string `yaml:"allowed_web_domains"`
	AllowedRepoURLs   []string `yaml:"allowed_repo_urls"`
}

// NetworkPolicy controls outbound access and resource limits.
type NetworkPolicy struct {
	Enabled          bool     `yaml:"enabled"`
	TimeoutSeconds   float64  `yaml:"timeout_seconds"`
	WebMaxBytes      int64    `yaml:"web_max_bytes"`
	RepoMaxBytes     int64    `yaml:"repo_max_bytes"`
	RepoMaxFileBytes int64    `yaml:"repo_max_file_bytes"`
	RepoMaxFiles     int      `yaml:"repo_max_files"`
	AllowedWebHosts  []string `yaml:"allowed_web_hosts"`
	AllowedRepoHosts []string `yaml:"allowed_repo_hosts"`
	AllowLocalhost   bool     `yaml:"allow_localhost"`
}

// Config is the root configuration object.
type Config struct {
	Profile   string         `yaml:"profile"`
	Approvals ApprovalPolicy `yaml:"approvals"`
	Network   NetworkPolicy  `yaml:"network"`
	DataDir   string         `yaml:"data_dir"`
}

// DefaultConfig returns the built-in defaults: balanced profile,
// approvals required, network disabled.
func DefaultConfig() *Config {
	return &Config{
		Profile: DefaultProfile,
		Approvals: ApprovalPolicy{
			RequireApproval:   true,
			AllowedWebDomains: []string{},
			AllowedRepoURLs:   []string{},
		},
		Network: NetworkPolicy{
			Enabled:          false,
			TimeoutSeconds:   10.0,
			WebMaxBytes:      1024 * 1024,
			RepoMaxBytes:     10 * 1024 * 1024,
			RepoMaxFileBytes: 256 * 1024,
			RepoMaxFiles:     2000,
			AllowedWebHosts:  []string{},
			AllowedRepoHosts: []string{},
		},
		DataDir: "",
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.bridgewarden/config.yaml. Missing file returns defaults. Invalid
// YAML or an invalid field returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".bridgewarden", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	// Reject non-mapping documents explicitly; yaml.Unmarshal into a
	// struct would also fail but with a less useful message.
	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, configErrorf("config must be valid YAML: %v", err)
	}
	if probe != nil {
		if _, ok := probe.(map[string]any); !ok {
			return nil, configErrorf("config must be a mapping")
		}
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, configErrorf("config must be valid YAML: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every limit and reports the first offending field.
func (c *Config) Validate() error {
	if c.Profile == "" {
		return configErrorf("profile must be a non-empty string")
	}
	if c.Network.TimeoutSeconds <= 0 {
		return configErrorf("network.timeout_seconds must be positive")
	}
	if c.Network.WebMaxBytes <= 0 {
		return configErrorf("network.web_max_bytes must be positive")
	}
	if c.Network.RepoMaxBytes <= 0 {
		return configErrorf("network.repo_max_bytes must be positive")
	}
	if c.Network.RepoMaxFileBytes <= 0 {
		return configErrorf("network.repo_max_file_bytes must be positive")
	}
	if c.Network.RepoMaxFiles <= 0 {
		return configErrorf("network.repo_max_files must be positive")
	}
	return nil
}

// ResolveDataDir returns the configured data directory or the default
// ~/.bridgewarden when unset.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".bridgewarden"), nil
}

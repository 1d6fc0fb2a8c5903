// Package config loads endpoint settings for the callflow client from a YAML
// file, an optional .env file and CALLFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/localrivet/callflow/client"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvURL             = "CALLFLOW_URL"
	EnvTransport       = "CALLFLOW_TRANSPORT"
	EnvTimeout         = "CALLFLOW_TIMEOUT"
	EnvAuthType        = "CALLFLOW_AUTH_TYPE"
	EnvAuthCredentials = "CALLFLOW_AUTH_CREDENTIALS"
	EnvLogLevel        = "CALLFLOW_LOG_LEVEL"
)

// Recommended timeout range. Values outside it are accepted with a warning.
const (
	MinRecommendedTimeout = time.Second
	MaxRecommendedTimeout = 120 * time.Second
)

// Config holds the file representation of an endpoint.
type Config struct {
	URL       string     `yaml:"url"`
	Transport string     `yaml:"transport"`
	Timeout   Duration   `yaml:"timeout"`
	Auth      AuthConfig `yaml:"auth"`
	LogLevel  string     `yaml:"log_level"`
}

// AuthConfig selects the credential attached to requests.
type AuthConfig struct {
	Type        string `yaml:"type"`
	Credentials string `yaml:"credentials"`
}

// Duration accepts a duration string ("30s") or a plain number of
// milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := ParseTimeout(raw)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ParseTimeout converts v to a duration. Integers and numeric strings are
// milliseconds; other strings use time.ParseDuration syntax.
func ParseTimeout(v interface{}) (time.Duration, error) {
	if v == nil {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		if ms, err := cast.ToInt64E(s); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		d, err := cast.ToDurationE(s)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		return d, nil
	}
	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %v: %w", v, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// DefaultSearchPaths returns the config file search order.
func DefaultSearchPaths() []string {
	paths := []string{"callflow.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "callflow", "config.yaml"))
	}
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise the first existing DefaultSearchPaths entry is returned, or ""
// when there is none.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Load reads configuration from a YAML file, expanding ${VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any CALLFLOW_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvURL); ok {
		c.URL = v
	}
	if v, ok := os.LookupEnv(EnvTransport); ok {
		c.Transport = v
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	if v, ok := os.LookupEnv(EnvAuthType); ok {
		c.Auth.Type = v
	}
	if v, ok := os.LookupEnv(EnvAuthCredentials); ok {
		c.Auth.Credentials = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

// Resolve builds the effective configuration: .env first, then the config
// file (explicit path or the default search paths), then the environment.
// A missing config file is not an error when path is empty.
func Resolve(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	found, err := FindConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if found != "" {
		if cfg, err = Load(found); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Endpoint converts the file representation to a client.EndpointConfig.
// Validation of the URL and timeout happens in client.Connect.
func (c *Config) Endpoint() (client.EndpointConfig, error) {
	ep := client.EndpointConfig{
		URL:     strings.TrimSpace(c.URL),
		Timeout: time.Duration(c.Timeout),
	}
	if c.Transport != "" {
		kind, err := client.ParseTransportKind(c.Transport)
		if err != nil {
			return ep, err
		}
		ep.Transport = kind
	}

	switch strings.ToLower(strings.TrimSpace(c.Auth.Type)) {
	case "":
		if c.Auth.Credentials != "" {
			ep.Credential = client.Credential{Kind: client.CredentialBearer, Value: c.Auth.Credentials}
		}
	case "none":
		ep.Credential = client.Credential{Kind: client.CredentialNone}
	case "bearer", "token":
		ep.Credential = client.Credential{Kind: client.CredentialBearer, Value: c.Auth.Credentials}
	case "basic":
		ep.Credential = client.Credential{Kind: client.CredentialBasic, Value: c.Auth.Credentials}
	default:
		return ep, fmt.Errorf("%w: unsupported auth type %q", client.ErrInvalidConfig, c.Auth.Type)
	}
	return ep, nil
}

// Warnings reports settings that are accepted but likely mistakes.
func (c *Config) Warnings() []string {
	var warnings []string
	if t := time.Duration(c.Timeout); t != 0 && (t < MinRecommendedTimeout || t > MaxRecommendedTimeout) {
		warnings = append(warnings, fmt.Sprintf("timeout %v is outside the recommended range %v-%v",
			t, MinRecommendedTimeout, MaxRecommendedTimeout))
	}
	if strings.HasPrefix(c.URL, "ws://") || strings.HasPrefix(c.URL, "http://") {
		if c.Auth.Credentials != "" && !isLocal(c.URL) {
			warnings = append(warnings, "credentials will be sent over an unencrypted connection")
		}
	}
	return warnings
}

func isLocal(rawURL string) bool {
	for _, host := range []string{"://localhost", "://127.0.0.1", "://[::1]"} {
		if strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}

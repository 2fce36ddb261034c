// Package config handles loading and managing shortcut configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvWSDL     = "B_SHORTCUT_WSDL"
	EnvReport   = "B_SHORTCUT_REPORT"
	EnvLogLevel = "B_SHORTCUT_LOG_LEVEL"
)

// DefaultWSDL is the oracle WSDL used when nothing else is configured.
const DefaultWSDL = "http://localhost:8080/kamp-ws/services/changeSpecificDependencies?wsdl"

// DefaultNamespace is the target namespace of the oracle's SOAP operations.
const DefaultNamespace = "http://client.kampws.sdq.ipd.kit.edu/"

// Config is the top-level configuration for the shortcut tool.
type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Build    BuildConfig    `yaml:"build"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Report   ReportConfig   `yaml:"report"`
	Log      LogConfig      `yaml:"log"`
}

// OracleConfig controls how the dependency oracle is reached.
type OracleConfig struct {
	WSDL         string `yaml:"wsdl"`
	Namespace    string `yaml:"namespace"`
	Timeout      int    `yaml:"timeout"`       // seconds, per call
	ProbeTimeout int    `yaml:"probe_timeout"` // seconds
}

// BuildConfig controls the underlying build tool.
type BuildConfig struct {
	Tool         string `yaml:"tool"`
	Descriptor   string `yaml:"descriptor"`    // build descriptor file name
	RestrictFlag string `yaml:"restrict_flag"` // flag restricting the build to a project list
	Timeout      int    `yaml:"timeout"`       // seconds; 0 means no limit
}

// CheckoutConfig controls checkout root discovery.
type CheckoutConfig struct {
	Markers []string `yaml:"markers"`
}

// ReportConfig controls run report publication.
type ReportConfig struct {
	Sink string   `yaml:"sink"` // directory, file://, s3://, gs:// or postgres:// URL
	S3   S3Config `yaml:"s3"`
}

// S3Config holds optional settings for s3:// report sinks.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			WSDL:         DefaultWSDL,
			Namespace:    DefaultNamespace,
			Timeout:      30,
			ProbeTimeout: 5,
		},
		Build: BuildConfig{
			Tool:         "mvn",
			Descriptor:   "pom.xml",
			RestrictFlag: "-pl",
		},
		Checkout: CheckoutConfig{
			Markers: []string{".repo", ".gitmodules"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides onto cfg.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvWSDL); v != "" {
		c.Oracle.WSDL = v
	}
	if v := os.Getenv(EnvReport); v != "" {
		c.Report.Sink = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// OracleTimeout returns the per-call oracle timeout.
func (c *Config) OracleTimeout() time.Duration {
	return seconds(c.Oracle.Timeout, 30)
}

// ProbeTimeout returns the reachability probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return seconds(c.Oracle.ProbeTimeout, 5)
}

// BuildTimeout returns the build tool timeout, or 0 for none.
func (c *Config) BuildTimeout() time.Duration {
	if c.Build.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Build.Timeout) * time.Second
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// FindConfigFile looks for .shortcut/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".shortcut", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

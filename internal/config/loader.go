package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// DefaultConfigFile is the quality configuration file name searched for in
// the working directory.
const DefaultConfigFile = "docqa.yaml"

// homeConfigFile is the name searched for in the user's home directory.
const homeConfigFile = ".docqa.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected. An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	return parseOver(Default(), data)
}

// ParseProfile decodes YAML over a named profile.
func ParseProfile(profile string, data []byte) (*Config, error) {
	base, err := Profile(profile)
	if err != nil {
		return nil, err
	}
	return parseOver(base, data)
}

// targetOverride reports whether the document sets
// sla.requirements.performance_targets.
type targetOverride struct {
	SLA struct {
		Requirements struct {
			PerformanceTargets *yaml.Node `yaml:"performance_targets"`
		} `yaml:"requirements"`
	} `yaml:"sla"`
}

func parseOver(cfg *Config, data []byte) (*Config, error) {
	// A performance_targets mapping replaces the base set instead of merging
	// into it, so a file can drop targets it does not want enforced.
	var override targetOverride
	if err := yaml.Unmarshal(data, &override); err == nil && override.SLA.Requirements.PerformanceTargets != nil {
		cfg.SLA.Requirements.PerformanceTargets = nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("invalid quality configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a YAML file. A missing file returns
// ErrConfigNotFound so callers can decide whether defaults are acceptable.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile reads a YAML file and applies it over the named profile.
// An empty profile means the defaults.
func LoadWithProfile(path, profile string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, apperrors.NewConfigError(fmt.Sprintf("cannot read %s", path), err)
	}
	if profile == "" {
		return Parse(data)
	}
	return ParseProfile(profile, data)
}

// Find searches for the quality configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for docqa.yaml in the current directory
// 3. Look for .docqa.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func Find(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, homeConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Resolve returns the configuration for an optional file path and profile.
// An explicitly named file that does not exist is an error; when no file is
// named and none is found the profile (or defaults) is used as is.
func Resolve(configPath, profile string) (*Config, error) {
	path := Find(configPath)
	if path == "" {
		if configPath != "" {
			return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s", configPath), ErrConfigNotFound)
		}
		if profile == "" {
			return Default(), nil
		}
		return Profile(profile)
	}
	return LoadWithProfile(path, profile)
}

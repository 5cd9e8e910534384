// Package config loads and persists the host application's own
// configuration document, with an optional human-edited YAML overrides file
// layered on top and a one-time legacy-format import handled by
// internal/migrate.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hearthcore/hearth/internal/secureio"
)

const (
	configFileName    = "config.json"
	overridesFileName = "overrides.yaml"
)

// EndpointClass classifies a configured endpoint as local or remote, per the
// fixed localhost/loopback set.
type EndpointClass string

const (
	EndpointLocal  EndpointClass = "local"
	EndpointRemote EndpointClass = "remote"
)

// Config is the host application's persisted configuration.
type Config struct {
	Model       string `json:"model" yaml:"model"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Personality string `json:"personality" yaml:"personality"`
}

// Overrides is the optional human-edited layer merged on top of Config at
// load time. Any zero-value field leaves the loaded config field untouched.
type Overrides struct {
	Model       string `yaml:"model,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	Personality string `yaml:"personality,omitempty"`
}

// ClassifyEndpoint reports whether endpoint's host is localhost, 127.0.0.1,
// or ::1 (local) or anything else (remote). A malformed endpoint is treated
// as remote: the safer assumption, since local-only behaviors (binding
// OLLAMA_HOST, skipping remote warnings) should not silently apply to
// something we can't parse.
func ClassifyEndpoint(endpoint string) EndpointClass {
	u, err := url.Parse(endpoint)
	if err != nil {
		return EndpointRemote
	}
	host := u.Hostname()
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return EndpointLocal
	default:
		return EndpointRemote
	}
}

// Default returns the built-in safe default configuration, used both as the
// first-run seed and as the fallback when the persisted document is
// unreadable.
func Default() Config {
	return Config{
		Model:       "",
		Endpoint:    "http://127.0.0.1:11434",
		Personality: "default",
	}
}

// Load reads config.json from dir, applying the legacy import migrateLegacy
// (if non-nil) when config.json is absent, then layers
// overrides.yaml on top if it exists. On any read/parse failure of the
// primary document it falls back to Default() and re-persists it, per the
// "persistence errors fall back to safe defaults and re-persist" policy.
func Load(dir string, migrateLegacy func(dir string) (*Config, error)) (Config, error) {
	path := filepath.Join(dir, configFileName)

	cfg, err := readConfig(path)
	if err != nil {
		if os.IsNotExist(err) && migrateLegacy != nil {
			if migrated, mErr := migrateLegacy(dir); mErr == nil && migrated != nil {
				cfg = *migrated
				if saveErr := Save(dir, cfg); saveErr != nil {
					return cfg, fmt.Errorf("persist migrated config: %w", saveErr)
				}
				return applyOverrides(dir, cfg)
			}
		}

		cfg = Default()
		if saveErr := Save(dir, cfg); saveErr != nil {
			return cfg, fmt.Errorf("persist default config: %w", saveErr)
		}
		return applyOverrides(dir, cfg)
	}

	return applyOverrides(dir, cfg)
}

func readConfig(path string) (Config, error) {
	data, err := secureio.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(dir string, cfg Config) (Config, error) {
	path := filepath.Join(dir, overridesFileName)
	data, err := secureio.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, nil // overrides are optional and best-effort; never block load on a bad overrides file
	}

	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return cfg, nil
	}

	if ov.Model != "" {
		cfg.Model = ov.Model
	}
	if ov.Endpoint != "" {
		cfg.Endpoint = ov.Endpoint
	}
	if ov.Personality != "" {
		cfg.Personality = ov.Personality
	}

	return cfg, nil
}

// Save persists cfg to config.json under dir using a tmp-file+rename atomic
// write.
func Save(dir string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(dir, configFileName)
	return secureio.WriteAtomic(path, data, 0o600)
}

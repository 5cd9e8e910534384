// Package migrate handles the one-time import of the pre-JSON config.toml
// format into the current config.json, and tracks which userDataSchemaVersion
// transitions the update state machine's compatibility gate may accept.
package migrate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/hearthcore/hearth/internal/config"
	"github.com/hearthcore/hearth/internal/secureio"
)

const legacyConfigFileName = "config.toml"

// legacyConfig mirrors the pre-JSON config.toml schema, including the older
// field names it used before the rename to the current config.Config shape.
type legacyConfig struct {
	DefaultModel    string `toml:"default_model"`
	OllamaEndpoint  string `toml:"ollama_endpoint"`
	PersonalityName string `toml:"personality_name"`
}

// FromLegacyTOML reads config.toml under dir, if present, and translates it
// into the current Config shape. Returns (nil, nil) when no legacy file
// exists so callers can fall through to the default-seed path without
// treating absence as an error.
func FromLegacyTOML(dir string) (*config.Config, error) {
	path := filepath.Join(dir, legacyConfigFileName)

	data, err := secureio.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy config: %w", err)
	}

	var legacy legacyConfig
	if err := toml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("parse legacy config: %w", err)
	}

	cfg := config.Default()
	if legacy.DefaultModel != "" {
		cfg.Model = legacy.DefaultModel
	}
	if legacy.OllamaEndpoint != "" {
		cfg.Endpoint = legacy.OllamaEndpoint
	}
	if legacy.PersonalityName != "" {
		cfg.Personality = legacy.PersonalityName
	}

	return &cfg, nil
}

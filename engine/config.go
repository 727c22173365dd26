package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/atelier/engine/scene"
)

// ApplicationConfig is the TOML-backed application configuration.
type ApplicationConfig struct {
	Name string `toml:"name"`

	// Path of the SQLite store file.
	StorePath string `toml:"store_path"`

	// Path of the garment catalog TOML file.
	CatalogPath string `toml:"catalog_path"`

	// Origin suffix required on creation-surface notifications.
	CreatorDomain string `toml:"creator_domain"`

	// When true, manually entered references must point at a .glb asset.
	RequireModelExtension bool `toml:"require_model_extension"`

	TargetFPS int `toml:"target_fps"`

	// Seconds before a remote asset fetch gives up.
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// Overrides the scene's asset source. Nil selects HTTP with the timeout
	// above. Not configurable from TOML; hosts and tests set it in code.
	Fetcher scene.Fetcher `toml:"-"`
}

// DefaultConfig returns a runnable configuration for local development.
func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:                "Atelier",
		StorePath:           "atelier.db",
		CatalogPath:         "assets/catalog.toml",
		CreatorDomain:       ".readyplayer.me",
		TargetFPS:           60,
		FetchTimeoutSeconds: 30,
	}
}

// LoadConfig reads an ApplicationConfig from a TOML file, applying defaults
// for omitted fields.
func LoadConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("config: store_path is required")
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("config: catalog_path is required")
	}
	if c.TargetFPS <= 0 {
		return fmt.Errorf("config: target_fps must be positive")
	}
	return nil
}

// Package config loads the restore engine's own startup configuration:
// cache location and the experimental registry feature flag (§6).
package config

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	apperrors "github.com/bicep-tools/modrestore/internal/application/errors"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// DefaultCacheDirName names the cache subdirectory under the user's home
// directory when no override is configured.
const DefaultCacheDirName = ".bicep/cache"

// RegistryEnabledEnvVar gates OCI module references behind an
// experimental flag (§6 "BICEP_REGISTRY_ENABLED_EXPERIMENTAL").
const RegistryEnabledEnvVar = "BICEP_REGISTRY_ENABLED_EXPERIMENTAL"

// RuntimeConfig aggregates the engine's own runtime configuration. A
// value object that flows through the container into every component
// that needs it.
type RuntimeConfig struct {
	CacheRoot             string
	RegistryEnabled       bool
	ModuleConfigMediaType string
}

// fileConfig is the shape of the optional on-disk config file, decoded
// with goccy/go-yaml; unknown keys are ignored.
type fileConfig struct {
	CacheRoot             string `yaml:"cache_root"`
	RegistryEnabled       *bool  `yaml:"registry_enabled_experimental"`
	ModuleConfigMediaType string `yaml:"module_config_media_type"`
}

// Load builds a RuntimeConfig from, in increasing precedence: built-in
// defaults, an optional YAML file at path (or ~/.bicep/config.yaml if
// path is empty), and environment variables.
func Load(path string) (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{
		ModuleConfigMediaType: values.ModuleConfigMediaType,
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.CacheRoot = filepath.Join(home, DefaultCacheDirName)
	}

	resolvedPath := path
	if resolvedPath == "" && home != "" {
		resolvedPath = filepath.Join(home, ".bicep", "config.yaml")
	}

	if resolvedPath != "" {
		if err := applyFile(cfg, resolvedPath); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyFile(cfg *RuntimeConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.NewConfigurationError("config file", "failed to read "+path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperrors.NewConfigurationError("config file", "failed to parse "+path, err)
	}

	if fc.CacheRoot != "" {
		cfg.CacheRoot = fc.CacheRoot
	}
	if fc.RegistryEnabled != nil {
		cfg.RegistryEnabled = *fc.RegistryEnabled
	}
	if fc.ModuleConfigMediaType != "" {
		cfg.ModuleConfigMediaType = fc.ModuleConfigMediaType
	}
	return nil
}

func applyEnv(cfg *RuntimeConfig) {
	v := viper.New()
	v.SetEnvPrefix("BICEP")
	v.AutomaticEnv()

	if v.IsSet("REGISTRY_ENABLED_EXPERIMENTAL") {
		cfg.RegistryEnabled = v.GetBool("REGISTRY_ENABLED_EXPERIMENTAL")
	}
	if root := v.GetString("CACHE_ROOT"); root != "" {
		cfg.CacheRoot = root
	}
}

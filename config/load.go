package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigFile is the optional YAML file loaded from the working directory.
	DefaultConfigFile = "apidocs.yaml"
	// EnvPrefix namespaces environment variable overrides, e.g. APIDOCS_BUILDER_TITLE.
	EnvPrefix = "APIDOCS_"
)

// Load loads options from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file
// 3. Default values (lowest priority)
func Load() (*Options, error) {
	return LoadFile(DefaultConfigFile)
}

// LoadFile loads options using the given YAML file instead of the default one.
// The file is optional; absence falls back to defaults plus environment overrides.
func LoadFile(path string) (*Options, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML file is optional
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if path != DefaultConfigFile {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("Warning: could not load %s: %v\n", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var opts Options
	if err := k.Unmarshal("", &opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	opts.k = k

	if err := Validate(&opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &opts, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"plugin.dto_file_suffixes":        []string{"_dto.go", "_model.go"},
		"plugin.controller_file_suffixes": []string{"_module.go", "_handlers.go"},
		"plugin.introspect_comments":      true,
		"plugin.validate_tag_constraints": true,

		"response.name":             "",
		"response.payload_property": "data",

		"builder.title":   "API",
		"builder.version": "1.0.0",

		"output.project_root":     ".",
		"output.artifact_path":    "docs/metadata.json",
		"output.document_path":    "openapi.json",
		"output.generator_binary": "apidocs-gen",
		"output.worker_timeout":   2 * time.Minute,

		"log.level":  "info",
		"log.pretty": false,

		"debug": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

/*
Package config loads server configuration through koanf.

Precedence, lowest to highest: built-in defaults, an optional YAML file,
then GREENLEDGER_* environment variables (GREENLEDGER_SERVER_PORT=9090
overrides server.port).
*/
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GREENLEDGER_"

type Config struct {
	Server struct {
		Port        int      `koanf:"port"`
		CORSOrigins []string `koanf:"cors_origins"`
	} `koanf:"server"`

	Database struct {
		Path string `koanf:"path"`
	} `koanf:"database"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"` // "text" or "json"
	} `koanf:"log"`
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"server.port":         8080,
		"server.cors_origins": []string{"*"},
		"database.path":       "greenledger.db",
		"log.level":           "info",
		"log.format":          "text",
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// GREENLEDGER_SERVER_PORT -> server.port
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

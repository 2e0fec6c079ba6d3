// Package config loads CLI configuration for rideinsights.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all CLI configuration options.
type Config struct {
	SourcePath      string `koanf:"source"`
	Sheet           string `koanf:"sheet"`
	DatabasePath    string `koanf:"database"`
	PaymentFallback string `koanf:"payment_fallback"`
	MaxRows         int    `koanf:"max_rows"`
	Verbose         bool   `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultSource   = "data/rides.xlsx"
	DefaultSheet    = "July"
	DefaultDatabase = "data/rideinsights.db"
	DefaultPayment  = "Cash"

	// EnvPrefix namespaces environment variables, e.g. RIDEINSIGHTS_DATABASE.
	EnvPrefix = "RIDEINSIGHTS_"
)

// Config file names searched in the working directory.
var configFileNames = []string{"rideinsights.yaml", "rideinsights.yml"}

var configFileUsed string

// Load loads configuration from defaults, an optional yaml file, environment
// variables and CLI flags, in increasing precedence. cfgFile overrides the
// default config file search; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	// Defaults.
	if err := k.Load(confmap.Provider(map[string]any{
		"source":           DefaultSource,
		"sheet":            DefaultSheet,
		"database":         DefaultDatabase,
		"payment_fallback": DefaultPayment,
		"max_rows":         0,
		"verbose":          false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file.
	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		configFileUsed = path
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}

	// Environment variables: RIDEINSIGHTS_MAX_ROWS -> max_rows.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	// Flags win over everything. Only changed flags override, and flag
	// names map dashes to config keys with underscores.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// FileUsed returns the path of the config file loaded, if any.
func FileUsed() string {
	return configFileUsed
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for mindbender
type Config struct {
	Root     string         `mapstructure:"root" json:"root"`
	Silo     string         `mapstructure:"silo" json:"silo"`
	Author   string         `mapstructure:"author" json:"author,omitempty"`
	Formats  []string       `mapstructure:"formats" json:"formats"`
	Families []FamilyConfig `mapstructure:"families" json:"families,omitempty"`
	Validate ValidationSettings `mapstructure:"validate" json:"validate"`

	// File is the configuration file that was read, empty when only defaults and env apply.
	File string `mapstructure:"-" json:"file,omitempty"`
}

// FamilyConfig registers or overrides a family.
type FamilyConfig struct {
	Name   string       `mapstructure:"name" json:"name"`
	Help   string       `mapstructure:"help" json:"help,omitempty"`
	Loader string       `mapstructure:"loader" json:"loader,omitempty"`
	Data   []DataConfig `mapstructure:"data" json:"data,omitempty"`
}

// DataConfig is one default data member of a family. Keys are listed as values
// rather than map keys so their case survives viper's key folding.
type DataConfig struct {
	Key   string      `mapstructure:"key" json:"key"`
	Value interface{} `mapstructure:"value" json:"value"`
	Help  string      `mapstructure:"help" json:"help,omitempty"`
}

// ValidationSettings tunes batch validation.
type ValidationSettings struct {
	Workers     int   `mapstructure:"workers" json:"workers"`
	MaxFileSize int64 `mapstructure:"max_file_size" json:"max_file_size"`
}

// LoadOptions selects where configuration comes from.
type LoadOptions struct {
	// ConfigFile is an explicit file (from --config); it must exist when set.
	ConfigFile string
}

const (
	envPrefix          = "MINDBENDER"
	configName         = "mindbender"
	defaultSilo        = "assets"
	defaultMaxFileSize = int64(10 * 1024 * 1024)
)

// DefaultFormats are the representation formats a fresh install understands.
var DefaultFormats = []string{".ma", ".mb", ".abc"}

var defaultConfig = Config{
	Silo:    defaultSilo,
	Formats: DefaultFormats,
	Validate: ValidationSettings{
		Workers:     0,
		MaxFileSize: defaultMaxFileSize,
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	c := defaultConfig
	c.Formats = append([]string(nil), defaultConfig.Formats...)
	return &c
}

// LoadConfig loads configuration with no explicit file.
func LoadConfig() (*Config, error) {
	return Load(LoadOptions{})
}

// Load resolves configuration from defaults, an optional mindbender.yaml,
// and MINDBENDER_* environment variables. PROJECTDIR is honoured for root.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", "")
	v.SetDefault("silo", defaultConfig.Silo)
	v.SetDefault("author", "")
	v.SetDefault("formats", defaultConfig.Formats)
	v.SetDefault("validate.workers", defaultConfig.Validate.Workers)
	v.SetDefault("validate.max_file_size", defaultConfig.Validate.MaxFileSize)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if configDir, err := GetConfigDir(); err == nil {
			v.AddConfigPath(configDir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("root", envPrefix+"_ROOT", "PROJECTDIR"); err != nil {
		return nil, fmt.Errorf("bind root env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			if err := ValidateConfigFile(used); err != nil {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.File = v.ConfigFileUsed()
	if config.Silo == "" {
		config.Silo = defaultSilo
	}
	return &config, nil
}

// Family returns the configured family by name.
func (c *Config) Family(name string) (FamilyConfig, bool) {
	for _, f := range c.Families {
		if f.Name == name {
			return f, true
		}
	}
	return FamilyConfig{}, false
}

// SiloDir joins root and silo; empty when no root is configured.
func (c *Config) SiloDir() string {
	if c.Root == "" {
		return ""
	}
	return filepath.Join(c.Root, c.Silo)
}

// GetHome returns the mindbender home directory
func GetHome() (string, error) {
	if home := os.Getenv(envPrefix + "_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mindbender"), nil
}

// GetConfigDir returns the config directory within the mindbender home.
func GetConfigDir() (string, error) {
	homeDir, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "config"), nil
}

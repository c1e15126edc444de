// Package config provides configuration management for
// danplanner2billy. Configuration lives in a YAML file; the Billy API
// key may also come from the environment or a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when --config is not
// given.
const DefaultPath = "~/.config/danplanner2billy/config.yaml"

// Config represents the application configuration. It is loaded and
// validated once at startup and passed explicitly to every component
// that needs it.
type Config struct {
	Files FilesConfig `yaml:"files"`
	Billy BillyConfig `yaml:"billy"`
}

// FilesConfig governs input file handling and archival.
type FilesConfig struct {
	// MaxFileAge is the staleness threshold for the input file, in
	// seconds. Older files need an operator override.
	MaxFileAge int `yaml:"maxFileAge"`
	// CurrencyLocale is the BCP-47 tag governing numeric parsing of
	// the export's amount columns, e.g. "da-DK".
	CurrencyLocale string `yaml:"currencyLocale"`
	// DstFolder is the archival root; exports are moved into its
	// per-year subfolders.
	DstFolder string `yaml:"dstFolder"`
}

// BillyConfig represents Billy API configuration.
type BillyConfig struct {
	// APIKey is the X-Access-Token credential. The BILLY_API_KEY
	// environment variable overrides it.
	APIKey string `yaml:"apikey"`
	// Prefix starts the description of every created transaction.
	Prefix string `yaml:"prefix"`
	// Currency is the currency id for created lines. Default "DKK".
	Currency string `yaml:"currency"`
	// APIURL overrides the production endpoint, e.g. for tests.
	APIURL string `yaml:"apiurl"`
}

// Load reads, defaults and validates the configuration file at path
// (DefaultPath when empty). A .env file in the working directory is
// honored for the BILLY_API_KEY override.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; it only exists on operator machines
	// that prefer not to keep the API key in the config file.
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	fullPath, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", fullPath, err)
	}

	if key := os.Getenv("BILLY_API_KEY"); key != "" {
		config.Billy.APIKey = key
	}
	if config.Billy.Currency == "" {
		config.Billy.Currency = "DKK"
	}

	if config.Files.DstFolder != "" {
		config.Files.DstFolder, err = ExpandHome(config.Files.DstFolder)
		if err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", fullPath, err)
	}
	return &config, nil
}

// Validate checks every field, so a missing or malformed key fails at
// startup instead of deep in the pipeline.
func (c *Config) Validate() error {
	var problems []string

	if c.Files.MaxFileAge <= 0 {
		problems = append(problems, "files.maxFileAge must be a positive number of seconds")
	}
	if c.Files.CurrencyLocale == "" {
		problems = append(problems, "files.currencyLocale is required")
	} else if _, err := language.Parse(c.Files.CurrencyLocale); err != nil {
		problems = append(problems, fmt.Sprintf("files.currencyLocale %q is not a valid locale tag", c.Files.CurrencyLocale))
	}
	if c.Files.DstFolder == "" {
		problems = append(problems, "files.dstFolder is required")
	}
	if c.Billy.APIKey == "" {
		problems = append(problems, "billy.apikey is required (config file or BILLY_API_KEY)")
	}
	if c.Billy.Prefix == "" {
		problems = append(problems, "billy.prefix is required")
	}
	if money.GetCurrency(strings.ToUpper(c.Billy.Currency)) == nil {
		problems = append(problems, fmt.Sprintf("billy.currency %q is not a known currency code", c.Billy.Currency))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// MaxAge returns files.maxFileAge as a duration.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Files.MaxFileAge) * time.Second
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

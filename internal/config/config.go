// Package config loads datapurge settings from a config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/eldritchtools/datapurge/internal/changes"
	"github.com/eldritchtools/datapurge/internal/logger"
)

const (
	ProviderCloudflare = "cloudflare"
	ProviderCloudFront = "cloudfront"
)

// DefaultOrigins are the sites that read the data API through the CDN.
var DefaultOrigins = []string{
	"https://limbus-teams.eldritchtools.com",
	"https://limbus-md.eldritchtools.com",
	"http://localhost:3000",
}

type Config struct {
	Domain        string   `toml:"domain" yaml:"domain" env:"R2_CUSTOM_DOMAIN"`
	Origins       []string `toml:"origins" yaml:"origins" env:"PURGE_ORIGINS" envSeparator:","`
	Provider      string   `toml:"provider" yaml:"provider" env:"PURGE_PROVIDER"`
	IgnoreFailure bool     `toml:"ignore-failure" yaml:"ignore-failure" env:"PURGE_IGNORE_FAILURE"`

	Git        GitConfig        `toml:"git" yaml:"git"`
	Cloudflare CloudflareConfig `toml:"cloudflare" yaml:"cloudflare"`
	CloudFront CloudFrontConfig `toml:"cloudfront" yaml:"cloudfront"`
	Log        logger.Config    `toml:"log" yaml:"log"`
}

type GitConfig struct {
	// Before and After bound the diff. They come from the push event, never the file.
	Before string `toml:"-" yaml:"-" env:"GITHUB_BEFORE"`
	After  string `toml:"-" yaml:"-" env:"GITHUB_AFTER"`

	Dir    string `toml:"dir" yaml:"dir" env:"GITHUB_WORKSPACE"`
	Binary string `toml:"binary" yaml:"binary"`
	Prefix string `toml:"prefix" yaml:"prefix"`
	Suffix string `toml:"suffix" yaml:"suffix"`
}

type CloudflareConfig struct {
	ZoneID     string `toml:"zone-id" yaml:"zone-id" env:"CF_ZONE_ID"`
	Token      string `toml:"-" yaml:"-" env:"CF_PURGE_API_TOKEN"`
	APIBaseURL string `toml:"api-base-url" yaml:"api-base-url" env:"CF_API_BASE_URL"`
}

type CloudFrontConfig struct {
	DistributionID string `toml:"distribution-id" yaml:"distribution-id" env:"CF_DISTRIBUTION_ID"`
	Region         string `toml:"region" yaml:"region" env:"AWS_REGION"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Origins:  append([]string(nil), DefaultOrigins...),
		Provider: ProviderCloudflare,
		Git: GitConfig{
			Binary: "git",
			Prefix: changes.DefaultPrefix,
			Suffix: changes.DefaultSuffix,
		},
		Log: logger.Config{
			Level:      logger.LevelInfo,
			Format:     logger.FormatConsole,
			MaxSize:    10,
			MaxAge:     7,
			MaxBackups: 3,
		},
	}
}

// Load applies the config file at path (if it exists) and then the environment
// on top of the defaults. Files ending in .yaml or .yml are read as YAML,
// anything else as TOML.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // No config file, use defaults/env/flags
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	return nil
}

// Validate reports every missing or invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required (set R2_CUSTOM_DOMAIN, domain in config file or --domain)"))
	}

	switch c.Provider {
	case ProviderCloudflare:
		if len(c.Origins) == 0 {
			errs = append(errs, errors.New("at least one origin is required (set PURGE_ORIGINS or origins in config file)"))
		}
		if c.Cloudflare.ZoneID == "" {
			errs = append(errs, errors.New("cloudflare zone id is required (set CF_ZONE_ID, cloudflare.zone-id in config file or --zone-id)"))
		}
		if c.Cloudflare.Token == "" {
			errs = append(errs, errors.New("cloudflare api token is required (set CF_PURGE_API_TOKEN)"))
		}
	case ProviderCloudFront:
		if c.CloudFront.DistributionID == "" {
			errs = append(errs, errors.New("cloudfront distribution id is required (set CF_DISTRIBUTION_ID, cloudfront.distribution-id in config file or --distribution-id)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderCloudflare, ProviderCloudFront))
	}

	return errors.Join(errs...)
}

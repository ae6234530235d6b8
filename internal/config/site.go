package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteEntry describes one deployment of the storefront.
type SiteEntry struct {
	BaseURL string `yaml:"base_url"`
}

// SiteConfig maps environment names to deployments.
type SiteConfig struct {
	Environments map[string]SiteEntry `yaml:"environments"`
}

// LoadSite reads and validates a site YAML config file.
func LoadSite(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("site config: %w", err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("site config: %w", err)
	}
	if len(cfg.Environments) < 1 {
		return nil, fmt.Errorf("site config: at least one environment is required")
	}
	for name, e := range cfg.Environments {
		if e.BaseURL == "" {
			return nil, fmt.Errorf("site config: environments.%s missing base_url", name)
		}
	}
	return &cfg, nil
}

// BaseURL returns the base URL for env (case-insensitive).
func (c *SiteConfig) BaseURL(env string) (string, error) {
	for name, e := range c.Environments {
		if strings.EqualFold(name, env) {
			return e.BaseURL, nil
		}
	}
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return "", fmt.Errorf("site config: unknown environment %q (have %s)", env, strings.Join(names, ", "))
}

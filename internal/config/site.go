package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing crawl behavior per documentation site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the global crawl delay for this site.
	// Accepts duration strings like "500ms" or "2s".
	// If zero, the global CrawlDelay is used.
	Delay time.Duration `yaml:"delay,omitempty"`

	// Proxy is an HTTP proxy URL to route this site's requests through.
	Proxy string `yaml:"proxy,omitempty"`

	// Render overrides the global render mode for this site
	// ("http" or "chrome").
	Render string `yaml:"render,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// UnmarshalYAML decodes a site entry. Delay values are duration strings
// ("500ms", "2s"); yaml.v3 has no native decoding for them, so a mirror
// struct carries the raw text.
func (sc *SiteConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Cookie         string            `yaml:"cookie"`
		Headers        map[string]string `yaml:"headers"`
		Delay          string            `yaml:"delay"`
		Proxy          string            `yaml:"proxy"`
		Render         string            `yaml:"render"`
		IgnorePatterns []string          `yaml:"ignorePatterns"`
		FollowPatterns []string          `yaml:"followPatterns"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var delay time.Duration
	if raw.Delay != "" {
		parsed, err := time.ParseDuration(raw.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", raw.Delay, err)
		}
		delay = parsed
	}

	sc.Cookie = raw.Cookie
	sc.Headers = raw.Headers
	sc.Delay = delay
	sc.Proxy = raw.Proxy
	sc.Render = raw.Render
	sc.IgnorePatterns = raw.IgnorePatterns
	sc.FollowPatterns = raw.FollowPatterns
	return nil
}

// File represents the structure of the .docshound.yaml configuration file.
type File struct {
	// Sites maps hosts to their site-specific configurations.
	// Keys should be the host without the protocol (e.g., "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration with defaults.
// Host lookup is case-insensitive because hostnames are.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		// Fall back to a case-insensitive scan; config files written by
		// hand often mix host capitalization.
		for key, sc := range cf.Sites {
			if strings.EqualFold(key, host) {
				siteConfig, ok = sc, true
				break
			}
		}
	}

	// Override with site-specific configuration if present
	if ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.Delay != 0 {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.Proxy != "" {
			result.Proxy = siteConfig.Proxy
		}
		if siteConfig.Render != "" {
			result.Render = siteConfig.Render
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = siteConfig.IgnorePatterns
		}
		if len(siteConfig.FollowPatterns) > 0 {
			result.FollowPatterns = siteConfig.FollowPatterns
		}
	}

	return result
}

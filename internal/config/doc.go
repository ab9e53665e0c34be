// Package config provides configuration structures and utilities for docshound.
// It defines the main crawl options, per-site overrides loaded from the YAML
// configuration file, and report generation preferences.
package config

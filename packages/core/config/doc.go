// Package config handles configuration loading and management for hitdesk.
//
// It provides functionality for:
//   - Loading configuration from .hitdesk.config.json, hitdesk.config.json or .hitdeskrc
//   - Default configuration values
//   - Merging command line overrides on top of the file
package config

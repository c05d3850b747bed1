// Package config handles loading and parsing of configuration from YAML files
// and WORDCOUNT_* environment variables. It defines the service configuration:
// listen address and timeouts, logging, upload limits, per-file processing,
// rate limiting and metrics.
package config

// Package config loads the gatherer's configuration from the process
// environment (optionally pre-seeded from a ".env" file), applies
// defaults, and validates the result before the coordinator builds
// anything from it.
package config

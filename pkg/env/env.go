// Package env reads process environment variables with fallbacks, for the few
// knobs (log format) that sit below the envconfig-managed configuration.
package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

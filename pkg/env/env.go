// Package env reads process environment variables needed before the typed
// config is loaded, such as the bootstrap logger settings.
package env

import "os"

// Get returns the variable's value, or the fallback when it is unset or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

package envutil

import (
	"os"
)

// ConfigFileEnv names the variable holding the default config file path.
const ConfigFileEnv = "CALLTRACE_CONFIG"

const defaultConfigFile = "calltrace.yaml"

// GetEnvOrFallback gets the environment variable for the specified key, but if
// it doesn't find a value, it'll instead return fallback.
func GetEnvOrFallback(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	return value
}

// ConfigFile returns the config file path from CALLTRACE_CONFIG, or
// calltrace.yaml when that file exists in the working directory.
func ConfigFile() string {
	fallback := ""
	if _, err := os.Stat(defaultConfigFile); err == nil {
		fallback = defaultConfigFile
	}
	return GetEnvOrFallback(ConfigFileEnv, fallback)
}

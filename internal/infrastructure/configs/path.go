package configs

import (
	"os"

	"github.com/roastparty/server/internal/infrastructure/env"
)

const defaultConfigPath = "config.yaml"

// DetermineConfigPath resolves the config file location: explicit env var
// first, then the default path if present, otherwise empty (defaults only).
func DetermineConfigPath() string {
	if path := env.GetString("CONFIG_PATH", ""); path != "" {
		return path
	}

	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}

	return ""
}

// Package config loads the authority HTTP server's own configuration:
// godotenv for an optional .env file plus pkg/utils's env getters for
// typed defaults, rather than the fabric-wide viper-based
// pkg/config.Settings used by the transceiver binaries.
package config

import (
	"github.com/joho/godotenv"

	"v2vfabric/pkg/utils"
)

// ServerConfig is the authority HTTP server's own runtime configuration.
type ServerConfig struct {
	Port string
}

// AppConfig holds the configuration loaded via Load.
var AppConfig ServerConfig

// Load reads authorityserver/.env if present (a missing file is not an
// error; AUTHORITY_PORT and the default are sufficient to run) and
// populates AppConfig.
func Load() error {
	_ = godotenv.Load("authorityserver/.env")

	AppConfig = ServerConfig{Port: utils.EnvOrDefault("AUTHORITY_PORT", "8090")}
	return nil
}

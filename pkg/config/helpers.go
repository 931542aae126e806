package config

import (
	"fmt"
	"os"
)

// LoadServiceConfig is a generic helper to load service configuration
func LoadServiceConfig[T Config](serviceName string, cfg T, opts ...Option) error {
	manager := NewManager(serviceName, opts...)
	return manager.LoadConfig(cfg)
}

// MustLoadServiceConfig loads config and panics on error (for main functions)
func MustLoadServiceConfig[T Config](serviceName string, cfg T, opts ...Option) T {
	if err := LoadServiceConfig(serviceName, cfg, opts...); err != nil {
		panic(fmt.Sprintf("failed to load %s config: %v", serviceName, err))
	}
	return cfg
}

// ServiceVersion returns the configured version, SERVICE_VERSION, or "dev".
func ServiceVersion(configured string) string {
	if configured != "" {
		return configured
	}
	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// IsProduction returns true for the production environment names
func IsProduction(environment string) bool {
	return environment == "production" || environment == "prod"
}

// IsDevelopment returns true for the development environment names
func IsDevelopment(environment string) bool {
	return environment == "development" || environment == "dev"
}

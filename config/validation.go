package config

import (
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that every required value is present. The JWT secret
// is required everywhere; the database password only outside development.
func ValidateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return ValidationError{Field: "JWT_SECRET", Message: "is required"}
	}
	if cfg.ServerPort == "" {
		return ValidationError{Field: "SERVER_PORT", Message: "is required"}
	}
	if IsProduction() {
		if cfg.DBPassword == "" {
			return ValidationError{Field: "DB_PASSWORD", Message: "is required in production"}
		}
		if cfg.DBSSLMode == "disable" {
			return ValidationError{Field: "DB_SSL_MODE", Message: "must not be disabled in production"}
		}
	}
	return nil
}

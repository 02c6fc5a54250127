package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// setFromEnv overwrites *loc with the parsed value of the named variable.
// Unset or empty variables leave the current value in place, so
// NewConfigFromEnv only ever narrows from DefaultConfig.
func setFromEnv(loc any, key string) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	switch v := loc.(type) {
	case *string:
		*v = raw
	case *bool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: parsing %q as a bool: %w", key, raw, err)
		}
		*v = parsed
	case *int:
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: parsing %q as an int: %w", key, raw, err)
		}
		*v = parsed
	default:
		return fmt.Errorf("%s: unsupported config field type %T", key, loc)
	}

	return nil
}

// Env files are optional in every environment this service deploys to; only
// an unreadable or malformed file is an error.
func loadEnvFile(filename string) error {
	if err := godotenv.Load(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", filename, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// IsProd selects the structured JSON log handler. Safe on a nil receiver so
// callers can ask before config is loaded.
func (c *Config) IsProd() bool {
	return c != nil && c.Environment == "production"
}

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every override variable.
const EnvPrefix = "CRIBBAGE_"

// ApplyEnv overrides fields from CRIBBAGE_* process environment variables.
func ApplyEnv(c *GameConfig) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyVars overrides fields from an explicit variable map, such as the
// Nakama runtime environment whose keys are lower case (cribbage_bot_level).
func ApplyVars(c *GameConfig, vars map[string]string) error {
	upper := make(map[string]string, len(vars))
	for k, v := range vars {
		upper[strings.ToUpper(k)] = v
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix, Environment: upper}); err != nil {
		return fmt.Errorf("parse runtime env: %w", err)
	}
	return nil
}

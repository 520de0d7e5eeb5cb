package config

import (
	"fmt"

	foundation "git.home.luguber.info/inful/hugoci/internal/foundation/errors"
)

// Validate checks cross-field constraints that do not depend on which step runs.
func Validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Credentials))
	for i, cred := range cfg.Credentials {
		if cred.ID == "" {
			return foundation.ValidationError(fmt.Sprintf("credentials[%d]: id is required", i)).Build()
		}
		if seen[cred.ID] {
			return foundation.ValidationError("duplicate credential id").WithContext("id", cred.ID).Build()
		}
		seen[cred.ID] = true
		switch cred.Type {
		case AuthTypeNone, AuthTypeSSH, AuthTypeToken, AuthTypeBasic:
		default:
			return foundation.ValidationError("unsupported credential type").
				WithContext("id", cred.ID).
				WithContext("type", string(cred.Type)).
				WithContext("valid", authTypes.Keys()).
				Build()
		}
	}
	if cfg.Daemon.Schedule != "" && cfg.Daemon.Interval > 0 {
		return foundation.ValidationError("daemon: schedule and interval are mutually exclusive").Build()
	}
	if cfg.Daemon.Interval < 0 {
		return foundation.ValidationError("daemon: interval must be positive").Build()
	}
	return nil
}

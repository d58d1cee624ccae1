package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError describes a single problem in a profile file.
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateConfig checks every profile for structural problems and returns
// all of them, not just the first.
func ValidateConfig(config *Config) []ValidationError {
	var errors []ValidationError

	if len(config.Profiles) == 0 {
		errors = append(errors, ValidationError{
			Path:    "profiles",
			Message: "at least one profile is required",
		})
	}

	for name, p := range config.Profiles {
		path := fmt.Sprintf("profiles.%s", name)

		if p.BaseURL == "" {
			errors = append(errors, ValidationError{
				Path:    path + ".baseUrl",
				Message: "baseUrl is required",
			})
		} else if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			errors = append(errors, ValidationError{
				Path:    path + ".baseUrl",
				Message: "baseUrl must start with http:// or https://",
			})
		}

		if p.Buffers != "" && p.Buffers != "default" && p.Buffers != "small" {
			errors = append(errors, ValidationError{
				Path:    path + ".buffers",
				Message: fmt.Sprintf("unknown preset %q (want default or small)", p.Buffers),
			})
		}

		if p.ResponseBuffer < 0 {
			errors = append(errors, ValidationError{
				Path:    path + ".responseBuffer",
				Message: "must not be negative",
			})
		}

		if p.Timeout != "" {
			if _, err := time.ParseDuration(p.Timeout); err != nil {
				errors = append(errors, ValidationError{
					Path:    path + ".timeout",
					Message: fmt.Sprintf("invalid duration %q", p.Timeout),
				})
			}
		}

		if p.Retry != nil {
			if p.Retry.MaxAttempts < 1 {
				errors = append(errors, ValidationError{
					Path:    path + ".retry.maxAttempts",
					Message: "must be at least 1",
				})
			}
			if p.Retry.Delay != "" {
				if _, err := time.ParseDuration(p.Retry.Delay); err != nil {
					errors = append(errors, ValidationError{
						Path:    path + ".retry.delay",
						Message: fmt.Sprintf("invalid duration %q", p.Retry.Delay),
					})
				}
			}
		}
	}

	return errors
}

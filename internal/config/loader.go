package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/riposte/http"
)

// Config is the top-level profile file. Profiles bundle the connection
// settings for an environment so they do not have to be repeated on every
// invocation.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile is a named set of client settings.
type Profile struct {
	BaseURL string            `yaml:"baseUrl"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
	// Buffers selects a buffer preset: "default" or "small".
	Buffers string `yaml:"buffers,omitempty"`
	// ResponseBuffer is the response buffer capacity in bytes. Zero means
	// the preset's receive size.
	ResponseBuffer int          `yaml:"responseBuffer,omitempty"`
	Retry          *RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig configures retries for transient failures.
type RetryConfig struct {
	MaxAttempts int    `yaml:"maxAttempts"`
	Delay       string `yaml:"delay,omitempty"`
}

// Load reads and validates a profile file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if errs := ValidateConfig(&cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", errs[0].Error())
	}
	return &cfg, nil
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// BufferSizes returns the buffer preset the profile selects.
func (p Profile) BufferSizes() http.BufferSizes {
	if p.Buffers == "small" {
		return http.SmallBufferSizes()
	}
	return http.DefaultBufferSizes()
}

// ClientOptions converts the profile into client options.
func (p Profile) ClientOptions() ([]http.ClientOption, error) {
	options := []http.ClientOption{http.WithBufferSizes(p.BufferSizes())}

	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return nil, fmt.Errorf("profile timeout: %w", err)
		}
		options = append(options, http.WithTimeout(d))
	}

	if p.Retry != nil {
		policy := http.RetryPolicy{MaxAttempts: p.Retry.MaxAttempts}
		if p.Retry.Delay != "" {
			d, err := time.ParseDuration(p.Retry.Delay)
			if err != nil {
				return nil, fmt.Errorf("profile retry delay: %w", err)
			}
			policy.Delay = d
		}
		options = append(options, http.WithRetry(policy))
	}

	return options, nil
}

// HeaderList returns the profile's headers as an ordered sequence.
func (p Profile) HeaderList() []http.Header {
	if len(p.Headers) == 0 {
		return nil
	}
	headers := make([]http.Header, 0, len(p.Headers))
	for name, value := range p.Headers {
		headers = append(headers, http.NewHeader(name, value))
	}
	return headers
}

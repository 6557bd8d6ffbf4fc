package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	GeminiAPIKey         string
	GeminiModel          string
	MaxFileSizeMB        int
	ProviderTimeout      time.Duration
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SEC must be positive, got %s", c.ProviderTimeout)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SEC must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimitMaxRequests)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "GEMINI_API_KEY", value: c.GeminiAPIKey},
		{name: "GEMINI_MODEL", value: c.GeminiModel},
	}
}

// MaxFileSizeBytes is the ceiling for a raw media payload. The base64
// representation sent to the provider runs roughly a third larger.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

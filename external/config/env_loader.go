package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/scribeflow/scribeflow/internal/config"
)

type envConfig struct {
	Env                  string `env:"ENV" envDefault:"production"`
	HTTPAddr             string `env:"HTTP_ADDR" envDefault:":3001"`
	DatabaseURL          string `env:"DATABASE_URL"`
	GeminiAPIKey         string `env:"GEMINI_API_KEY,required"`
	GeminiModel          string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	MaxFileSizeMB        int    `env:"MAX_FILE_SIZE_MB" envDefault:"15"`
	ProviderTimeoutSec   int    `env:"PROVIDER_TIMEOUT_SEC" envDefault:"120"`
	RateLimitWindowSec   int    `env:"RATE_LIMIT_WINDOW_SEC" envDefault:"900"`
	RateLimitMaxRequests int    `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                  raw.Env,
		HTTPAddr:             raw.HTTPAddr,
		DatabaseURL:          raw.DatabaseURL,
		GeminiAPIKey:         raw.GeminiAPIKey,
		GeminiModel:          raw.GeminiModel,
		MaxFileSizeMB:        raw.MaxFileSizeMB,
		ProviderTimeout:      time.Duration(raw.ProviderTimeoutSec) * time.Second,
		RateLimitWindow:      time.Duration(raw.RateLimitWindowSec) * time.Second,
		RateLimitMaxRequests: raw.RateLimitMaxRequests,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

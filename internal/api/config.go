package api

import (
	"fmt"
	"time"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/internal/validation"
)

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	DataDir           string        // CAS root for stored results
	RateLimitRequests int           // Requests per minute (0 = disabled)
	RateLimitBurst    int           // Burst size
	MaxBodyBytes      int           // Request body cap, 0 = validation.MaxTextSize
	CacheTTL          time.Duration // Result cache lifetime (0 = disabled)
	CacheSize         int           // Result cache entries
	JobWorkers        int           // Concurrent async jobs
	JobQueue          int           // Pending jobs before POST /jobs answers 503
	Workers           int           // Engine workers per request when the request leaves it at 0
	ShutdownTimeout   time.Duration
	Auth              AuthConfig
	AllowedOrigins    []string // CORS and websocket origins (empty = allow all)
}

// DefaultConfig returns the configuration used by `punctfix serve` without flags.
func DefaultConfig() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              8080,
		DataDir:           "punctfix-data",
		RateLimitRequests: 120,
		RateLimitBurst:    20,
		MaxBodyBytes:      validation.MaxTextSize,
		CacheTTL:          10 * time.Minute,
		CacheSize:         1024,
		JobWorkers:        2,
		JobQueue:          64,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Validate checks the configuration before the server starts.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return perrors.NewValidation("port", fmt.Sprintf("out of range: %d", c.Port))
	}
	if c.DataDir == "" {
		return perrors.NewValidation("data_dir", "required")
	}
	if c.RateLimitRequests < 0 || c.RateLimitBurst < 0 {
		return perrors.NewValidation("rate_limit", "must not be negative")
	}
	if c.MaxBodyBytes < 0 {
		return perrors.NewValidation("max_body_bytes", "must not be negative")
	}
	if c.JobWorkers < 1 {
		return perrors.NewValidation("job_workers", "must be at least 1")
	}
	if c.JobQueue < 1 {
		return perrors.NewValidation("job_queue", "must be at least 1")
	}
	if err := validation.ValidateWorkers(c.Workers); err != nil {
		return err
	}
	if err := ValidateAuthConfig(c.Auth); err != nil {
		return err
	}
	return nil
}

func (c Config) bodyLimit() int {
	if c.MaxBodyBytes <= 0 {
		return validation.MaxTextSize
	}
	return c.MaxBodyBytes
}

package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the fixed-window request limiter applied to the
// authentication endpoints. Max requests are counted per client IP inside
// each window; the counter key expires with the window.
type RateLimitConfig struct {
	Enabled bool          // RATE_LIMIT_ENABLED ("true"/"1")
	Max     int           // RATE_LIMIT_MAX requests per window (default 100)
	Window  time.Duration // RATE_LIMIT_WINDOW_SEC window size (default 15 minutes)
	Prefix  string        // key namespace in Redis
}

// LoadRateLimit reads the limiter settings from the environment. The limiter
// is off unless explicitly enabled, matching how the service behaves when no
// Redis instance is configured.
func LoadRateLimit() RateLimitConfig {
	cfg := RateLimitConfig{
		Max:    100,
		Window: 15 * time.Minute,
		Prefix: "crm:rl",
	}
	switch os.Getenv("RATE_LIMIT_ENABLED") {
	case "1", "true", "TRUE", "yes":
		cfg.Enabled = true
	}
	if s := os.Getenv("RATE_LIMIT_MAX"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Max = n
		}
	}
	if s := os.Getenv("RATE_LIMIT_WINDOW_SEC"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.Window = time.Duration(n) * time.Second
		}
	}
	return cfg
}

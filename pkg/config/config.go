package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/intent"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	Port        string
	Environment string
	LogLevel    string
	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	MaxRequestSize     int64
	// Scoring configuration
	DecayWindowDays       float64
	SourceAWeight         float64
	SourceBWeight         float64
	SpikeThresholdPercent float64
	ProfilesFile          string
	WatchProfiles         bool
	SpikeMonitorInterval  time.Duration
	ShutdownTimeout       time.Duration
}

// New creates a new configuration instance from environment variables
func New() *Config {
	defaults := intent.DefaultConfig()
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		// Security configuration
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:    getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		MaxRequestSize:     getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
		// Scoring configuration
		DecayWindowDays:       getEnvAsFloat("DECAY_WINDOW_DAYS", defaults.DecayWindowDays),
		SourceAWeight:         getEnvAsFloat("SOURCE_A_WEIGHT", defaults.SourceAWeight),
		SourceBWeight:         getEnvAsFloat("SOURCE_B_WEIGHT", defaults.SourceBWeight),
		SpikeThresholdPercent: getEnvAsFloat("SPIKE_THRESHOLD_PERCENT", defaults.SpikeThresholdPercent),
		ProfilesFile:          getEnv("PROFILES_FILE", ""),
		WatchProfiles:         getEnv("PROFILES_WATCH", "false") == "true",
		SpikeMonitorInterval:  time.Duration(getEnvAsInt("SPIKE_MONITOR_INTERVAL_SECONDS", 0)) * time.Second,
		ShutdownTimeout:       time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase returns true if a Postgres history sink is configured
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// SpikeMonitorEnabled returns true if the background spike monitor should run
func (c *Config) SpikeMonitorEnabled() bool {
	return c.SpikeMonitorInterval > 0
}

// ProfileWatchEnabled returns true if the profiles file should be reloaded on change
func (c *Config) ProfileWatchEnabled() bool {
	return c.ProfilesFile != "" && c.WatchProfiles
}

// IntentConfig returns the score calculator settings
func (c *Config) IntentConfig() intent.Config {
	cfg := intent.DefaultConfig()
	if c.DecayWindowDays > 0 {
		cfg.DecayWindowDays = c.DecayWindowDays
	}
	if c.SourceAWeight >= 0 {
		cfg.SourceAWeight = c.SourceAWeight
	}
	if c.SourceBWeight >= 0 {
		cfg.SourceBWeight = c.SourceBWeight
	}
	if c.SpikeThresholdPercent > 0 {
		cfg.SpikeThresholdPercent = c.SpikeThresholdPercent
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}

// IsSecurityEnabled returns true if security features should be enabled
func (c *Config) IsSecurityEnabled() bool {
	return c.IsProduction() || getEnv("ENABLE_SECURITY", "false") == "true"
}

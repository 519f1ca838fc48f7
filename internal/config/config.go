package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Deployment mode inputs. BuildMode is the build-time mode string
	// ("production", "staging", "development", or a custom mode);
	// ForceProduction is an explicit operator override. A bare "is prod"
	// boolean is deliberately not read from the environment because custom
	// deployment modes can disagree with it.
	BuildMode       string
	ForceProduction bool

	SchedulerBaseURL  string
	SchedulerTimeout  time.Duration
	MessagingBaseURL  string
	MessagingTimeout  time.Duration
	EmployeesBaseURL  string
	EmployeesTimeout  time.Duration

	DatabaseURL string

	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool
	ProviderCacheBackend string

	SuccessDisplayWindow time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BuildMode:       strings.ToLower(strings.TrimSpace(getEnv("BUILD_MODE", "development"))),
		ForceProduction: getEnvAsBool("FORCE_PRODUCTION", false),

		SchedulerBaseURL: getEnv("SCHEDULER_BASE_URL", ""),
		SchedulerTimeout: getEnvAsDuration("SCHEDULER_TIMEOUT", 60*time.Second),
		MessagingBaseURL: getEnv("MESSAGING_BASE_URL", ""),
		MessagingTimeout: getEnvAsDuration("MESSAGING_TIMEOUT", 20*time.Second),
		EmployeesBaseURL: getEnv("EMPLOYEES_BASE_URL", ""),
		EmployeesTimeout: getEnvAsDuration("EMPLOYEES_TIMEOUT", 20*time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		ProviderCacheBackend: strings.ToLower(getEnv("PROVIDER_CACHE_BACKEND", "memory")),

		SuccessDisplayWindow: getEnvAsDuration("SUCCESS_DISPLAY_WINDOW", 3*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

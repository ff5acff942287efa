package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// Auth
	JWTSecret     string
	TokenLifetime time.Duration

	// Walk-in registrations are attached to this professional's roster.
	DefaultProfessionalID string

	// Scheduling policy defaults (per-request overrides are not exposed)
	SchedulingWindowDays      int
	SchedulingDayStartHour    int
	SchedulingDayEndHour      int
	SchedulingSlotMinutes     int
	SchedulingIncludeWeekends bool
	ClinicTimezone            string

	// Redis (intake transcripts)
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
	TranscriptTTL     time.Duration
	IntakeMaxTurns    int
	GeminiAPIKey      string
	GeminiModelID     string
	IntakeRateLimit   float64
	IntakeRateBurst   int
	AuthRateLimit     float64
	AuthRateBurst     int

	// SendGrid Email Configuration
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	EmailNotifications bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenLifetime: getEnvAsDuration("TOKEN_LIFETIME", 12*time.Hour),

		DefaultProfessionalID: getEnv("DEFAULT_PROFESSIONAL_ID", ""),

		SchedulingWindowDays:      getEnvAsInt("SCHEDULING_WINDOW_DAYS", 7),
		SchedulingDayStartHour:    getEnvAsInt("SCHEDULING_DAY_START_HOUR", 9),
		SchedulingDayEndHour:      getEnvAsInt("SCHEDULING_DAY_END_HOUR", 17),
		SchedulingSlotMinutes:     getEnvAsInt("SCHEDULING_SLOT_MINUTES", 30),
		SchedulingIncludeWeekends: getEnvAsBool("SCHEDULING_INCLUDE_WEEKENDS", false),
		ClinicTimezone:            getEnv("CLINIC_TIMEZONE", "America/Sao_Paulo"),

		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		TranscriptTTL:   getEnvAsDuration("INTAKE_TRANSCRIPT_TTL", 30*24*time.Hour),
		IntakeMaxTurns:  getEnvAsInt("INTAKE_MAX_TURNS", 40),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:   getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		IntakeRateLimit: getEnvAsFloat("INTAKE_RATE_LIMIT", 1),
		IntakeRateBurst: getEnvAsInt("INTAKE_RATE_BURST", 5),
		AuthRateLimit:   getEnvAsFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:   getEnvAsInt("AUTH_RATE_BURST", 10),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "PsiClinic"),
		EmailNotifications: getEnvAsBool("EMAIL_NOTIFICATIONS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Lead sinks
	LeadWebhookURL        string
	LeadTimeZone          string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsCredentialsFile string
	DatabaseURL           string
	LeadNotifyEmail       string

	// Inference
	InferenceProvider string
	GeminiAPIKey      string
	ReasoningModel    string
	FastModel         string
	BedrockModelID    string
	BedrockFastModel  string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Sessions
	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Wizard / chat timings
	ScanDuration      time.Duration
	InFlightTimeout   time.Duration
	ChatMinReplyDelay time.Duration
	ChatReadDelay     time.Duration
	ChatGreeting      string
	ChatDedupeLeads   bool
	ChatEmailPattern  string
	ChatPhonePattern  string
	ScheduleURL       string

	// Email notification
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string
}

// DefaultChatGreeting opens every chat unless CHAT_GREETING overrides it.
// Setting CHAT_GREETING to an empty string disables the greeting.
const DefaultChatGreeting = "👋 Hola. Soy Eva, tu asistente legal. ¿En qué puedo ayudarte hoy?"

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 1),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		LeadWebhookURL:        getEnv("LEAD_WEBHOOK_URL", ""),
		LeadTimeZone:          getEnv("LEAD_TIMEZONE", "Europe/Madrid"),
		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("SHEETS_RANGE", "Leads!A:G"),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		LeadNotifyEmail:       getEnv("LEAD_NOTIFY_EMAIL", ""),

		InferenceProvider: strings.ToLower(strings.TrimSpace(getEnv("INFERENCE_PROVIDER", "gemini"))),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ReasoningModel:    getEnv("GEMINI_REASONING_MODEL", "gemini-2.5-pro"),
		FastModel:         getEnv("GEMINI_FAST_MODEL", "gemini-2.5-flash"),
		BedrockModelID:    getEnv("BEDROCK_MODEL_ID", ""),
		BedrockFastModel:  getEnv("BEDROCK_FAST_MODEL_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		ScanDuration:      getEnvAsDuration("WIZARD_SCAN_DURATION", 2*time.Second),
		InFlightTimeout:   getEnvAsDuration("IN_FLIGHT_TIMEOUT", 5*time.Minute),
		ChatMinReplyDelay: getEnvAsDuration("CHAT_MIN_REPLY_DELAY", 2*time.Second),
		ChatReadDelay:     getEnvAsDuration("CHAT_READ_DELAY", time.Second),
		ChatGreeting:      getEnvAllowEmpty("CHAT_GREETING", DefaultChatGreeting),
		ChatDedupeLeads:   getEnvAsBool("CHAT_DEDUPE_LEADS", false),
		ChatEmailPattern:  getEnv("CHAT_EMAIL_PATTERN", ""),
		ChatPhonePattern:  getEnv("CHAT_PHONE_PATTERN", ""),
		ScheduleURL:       getEnv("SCHEDULE_URL", "https://cal.com/obtenemostuindemnizacion/30min"),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Obtenemos Tu Indemnización"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty keeps a variable that is set but empty.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

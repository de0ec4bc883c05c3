package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DatabasePath  string
	LogLevel      string
	DefaultSeason string

	// Credentials for LIVE imports. The bcrypt hash is the source of
	// truth; LedgerPassword is an optional non-interactive override,
	// never embedded in source.
	AdminPasswordHash string
	LedgerPassword    string
	JWTSecret         string
	SessionExpiry     time.Duration

	ProgressInterval int
	WriteRatePerSec  int
	MaxFileSizeBytes int64

	EmailServiceProvider string
	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	SenderName           string
	SummaryRecipient     string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	jwtSecret := getEnv("JWT_SECRET", "insecure-development-session-secret-at-least-32b")
	if jwtSecret == "insecure-development-session-secret-at-least-32b" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	Cfg = &AppConfig{
		DatabasePath:  getEnv("DATABASE_PATH", "./clubledger.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DefaultSeason: getEnv("DEFAULT_SEASON", defaultSeason()),

		AdminPasswordHash: getEnv("LEDGER_ADMIN_HASH", ""),
		LedgerPassword:    getEnv("LEDGER_PASSWORD", ""),
		JWTSecret:         jwtSecret,
		SessionExpiry:     getEnvAsDuration("SESSION_TOKEN_EXPIRY", 2*time.Hour),

		ProgressInterval: getEnvAsInt("PROGRESS_INTERVAL", 25),
		WriteRatePerSec:  getEnvAsInt("STORE_WRITE_RATE", 50),
		MaxFileSizeBytes: getEnvAsInt64("MAX_FILE_SIZE_BYTES", 10*1024*1024),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),
		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:           getEnv("SENDER_NAME", "Club Ledger"),
		SummaryRecipient:     getEnv("SUMMARY_RECIPIENT", ""),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" || Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN and MAILGUN_PRIVATE_API_KEY are required when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
		if Cfg.SummaryRecipient == "" {
			log.Fatalf("FATAL: SUMMARY_RECIPIENT must be set when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, Season=%s, EmailProvider=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.DefaultSeason, Cfg.EmailServiceProvider)
}

// defaultSeason labels club seasons by calendar year.
func defaultSeason() string {
	return strconv.Itoa(time.Now().Year())
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

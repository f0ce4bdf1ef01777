package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Signature SignatureConfig
	Payment   PaymentConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
}

// SignatureConfig selects and configures the active e-signature provider.
// Exactly one provider is active process-wide.
type SignatureConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

// PaymentConfig configures the hosted-checkout gateway used for escrow deposits.
type PaymentConfig struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type SchedulerConfig struct {
	RunIntervalMinutes int
	EnabledJobs        []string
	RentDueOffsetDays  int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "leaseway"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "leaseway"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Signature: SignatureConfig{
			Provider:      strings.ToLower(getenv("SIGNATURE_PROVIDER", "mocksign")),
			BaseURL:       strings.TrimRight(getenv("SIGNATURE_BASE_URL", ""), "/"),
			APIKey:        strings.TrimSpace(getenv("SIGNATURE_API_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("SIGNATURE_WEBHOOK_SECRET", "")),
		},
		Payment: PaymentConfig{
			APIKey:     strings.TrimSpace(getenv("PAYMENT_API_KEY", "")),
			SuccessURL: getenv("PAYMENT_SUCCESS_URL", ""),
			CancelURL:  getenv("PAYMENT_CANCEL_URL", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@leaseway.io"),
		},
		Scheduler: SchedulerConfig{
			RunIntervalMinutes: getenvInt("SCHEDULER_RUN_INTERVAL_MINUTES", 60),
			EnabledJobs:        splitList(getenv("SCHEDULER_ENABLED_JOBS", "")),
			RentDueOffsetDays:  getenvInt("RENT_DUE_OFFSET_DAYS", 5),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "supersecretjwtkey"

type Config struct {
	Port                    string
	Env                     string
	DBDriver                string
	DatabaseURL             string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseCredentialsPath string

	// Email settings
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	FrontendURL  string

	PasswordResetTTL     time.Duration
	RateLimitPerMinute   int
	RateLimitBurst       int
	CounterRetryAttempts int
	ReconcileOnStartup   bool
	ReconcileBatchSize   int
}

// Load reads the optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is fine, the variables may come from the environment.
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:             getEnv("DATABASE_URL", getEnv("POSTGRES_CONN_STR", "host=localhost user=postgres password=postgres dbname=socialnet port=5432 sslmode=disable")),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:                  time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@socialnet.local"),
		FromName:     getEnv("FROM_NAME", "Socialnet"),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),

		PasswordResetTTL:     time.Duration(getEnvInt("PASSWORD_RESET_TTL_HOURS", 24)) * time.Hour,
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 30),
		CounterRetryAttempts: getEnvInt("COUNTER_RETRY_ATTEMPTS", 3),
		ReconcileOnStartup:   getEnvBool("RECONCILE_ON_STARTUP", false),
		ReconcileBatchSize:   getEnvInt("RECONCILE_BATCH_SIZE", 500),
	}
}

// Validate rejects settings that must never reach production.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return errors.New("DB_DRIVER must be postgres or mysql")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

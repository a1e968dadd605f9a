package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL         = "https://ws.pagseguro.uol.com.br/v2/checkout"
	defaultRedirectURL    = "https://pagseguro.uol.com.br/v2/checkout/payment.html"
	defaultSuccessURL     = "/pagseguroapi/pay/success"
	defaultAuditLogPath   = "pagseguro_unauthorized.log"
	defaultGatewayTimeout = 30 * time.Second
	defaultPendingTTL     = 15 * time.Minute

	defaultStrictRPS    = 2
	defaultStrictBurst  = 5
	defaultGeneralRPS   = 10
	defaultGeneralBurst = 20
	defaultLimiterIdle  = 3 * time.Minute
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CheckoutTokenSecret string
	// AdminAPISecret guards session issuance, history and metrics. Empty
	// disables those routes.
	AdminAPISecret string

	RateLimit RateLimitConfig
	PagSeguro PagSeguroConfig
}

// RateLimitConfig sets the per-client token buckets. Strict applies to
// authorize, which always calls PagSeguro.
type RateLimitConfig struct {
	StrictRPS    float64
	StrictBurst  int
	GeneralRPS   float64
	GeneralBurst int
	IdleTTL      time.Duration
}

// PagSeguroConfig mirrors the payment method settings of the store admin.
type PagSeguroConfig struct {
	APIURL           string
	RedirectURL      string
	SuccessURL       string
	AccountEmail     string
	AccountToken     string
	OpenInOtherPage  bool
	AuthorizeEnabled bool
	Timeout          time.Duration
	PendingTTL       time.Duration
	AuditLogPath     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CheckoutTokenSecret: os.Getenv("CHECKOUT_TOKEN_SECRET"),
		AdminAPISecret:      os.Getenv("ADMIN_API_SECRET"),

		RateLimit: RateLimitConfig{
			StrictRPS:    getEnvFloat("RATE_LIMIT_STRICT_RPS", defaultStrictRPS),
			StrictBurst:  getEnvInt("RATE_LIMIT_STRICT_BURST", defaultStrictBurst),
			GeneralRPS:   getEnvFloat("RATE_LIMIT_GENERAL_RPS", defaultGeneralRPS),
			GeneralBurst: getEnvInt("RATE_LIMIT_GENERAL_BURST", defaultGeneralBurst),
			IdleTTL:      getEnvDuration("RATE_LIMIT_IDLE_TTL", defaultLimiterIdle),
		},

		PagSeguro: PagSeguroConfig{
			APIURL:           getEnv("PAGSEGURO_API_URL", defaultAPIURL),
			RedirectURL:      getEnv("PAGSEGURO_API_REDIRECT_URL", defaultRedirectURL),
			SuccessURL:       getEnv("PAGSEGURO_SUCCESS_URL", defaultSuccessURL),
			AccountEmail:     os.Getenv("PAGSEGURO_ACCOUNT_EMAIL"),
			AccountToken:     os.Getenv("PAGSEGURO_ACCOUNT_TOKEN"),
			OpenInOtherPage:  getEnvBool("PAGSEGURO_OPEN_IN_OTHER_PAGE", false),
			AuthorizeEnabled: getEnvBool("PAGSEGURO_AUTHORIZE_ENABLED", true),
			Timeout:          getEnvDuration("PAGSEGURO_TIMEOUT", defaultGatewayTimeout),
			PendingTTL:       getEnvDuration("PENDING_TTL", defaultPendingTTL),
			AuditLogPath:     getEnv("PAGSEGURO_AUDIT_LOG", defaultAuditLogPath),
		},
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

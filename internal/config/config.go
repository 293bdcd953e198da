package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	SMTP     *SMTPConfig     `yaml:"smtp"`
	SMS      *SMSConfig      `yaml:"sms"`
	Payment  *PaymentConfig  `yaml:"payment"`
	Storage  *StorageConfig  `yaml:"storage"`
	Security *SecurityConfig `yaml:"security"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	BaseURL     string `yaml:"base_url"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Timezone    string `yaml:"timezone"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	PasswordMinLength  int           `yaml:"password_min_length"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	OTPStore           string        `yaml:"otp_store"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	OTPRetention       time.Duration `yaml:"otp_retention"`
	OTPPurgeInterval   time.Duration `yaml:"otp_purge_interval"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	OTPRateLimit       int           `yaml:"otp_rate_limit"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		SMTP:     loadSMTPConfig(),
		SMS:      loadSMSConfig(),
		Payment:  loadPaymentConfig(),
		Storage:  loadStorageConfig(),
		Security: loadSecurityConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate only rejects settings that cannot work in production.
func (c *Config) validate() error {
	if c.Security.OTPExpiry <= 0 {
		return fmt.Errorf("OTP_EXPIRY must be positive")
	}
	if c.Security.OTPStore != "memory" && c.Security.OTPStore != "redis" {
		return fmt.Errorf("unsupported OTP_STORE %q", c.Security.OTPStore)
	}
	if c.App.Environment != "production" {
		return nil
	}
	if c.Security.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.Payment.DefaultProvider {
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY must be set in production")
		}
	case "razorpay":
		if c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set in production")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_DEFAULT_PROVIDER %q", c.Payment.DefaultProvider)
	}
	return nil
}

const defaultJWTSecret = "ourskilllab-dev-secret"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "OurSkillLab"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "localhost"),
		BaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 7*24*time.Hour),
		PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		OTPStore:           getEnv("OTP_STORE", "memory"),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 10*time.Minute),
		OTPRetention:       getEnvAsDuration("OTP_RETENTION", 10*time.Minute),
		OTPPurgeInterval:   getEnvAsDuration("OTP_PURGE_INTERVAL", time.Minute),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		OTPRateLimit:       getEnvAsInt("OTP_RATE_LIMIT_PER_MINUTE", 5),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	KafkaBrokers       []string
	KafkaConsumerGroup string

	JWT      JWTConfig
	Email    EmailConfig
	Google   GoogleConfig
	Casdoor  CasdoorConfig
	Upload   UploadConfig
	OTP      OTPConfig
	CacheTTL time.Duration

	// AuthRateLimit caps public auth requests per client IP per minute.
	AuthRateLimit int
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type GoogleConfig struct {
	ClientID string
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// Enabled reports whether enough of the Casdoor block is set to verify tokens.
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Cert != ""
}

type UploadConfig struct {
	MaxSlipBytes     int64
	SlipCheckTimeout time.Duration
	RateLimit        int
	RateWindow       time.Duration
}

type OTPConfig struct {
	TTL           time.Duration
	MaxAttempts   int
	AttemptWindow time.Duration
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	level, err := parseLogLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    level,
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),

		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaConsumerGroup: v.GetString("KAFKA_CONSUMER_GROUP"),

		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		Email: EmailConfig{
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			FromEmail:      v.GetString("EMAIL_FROM"),
			FromName:       v.GetString("EMAIL_FROM_NAME"),
		},
		Google: GoogleConfig{
			ClientID: v.GetString("GOOGLE_CLIENT_ID"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     v.GetString("CASDOOR_ENDPOINT"),
			ClientID:     v.GetString("CASDOOR_CLIENT_ID"),
			ClientSecret: v.GetString("CASDOOR_CLIENT_SECRET"),
			Cert:         v.GetString("CASDOOR_CERT"),
			Organization: v.GetString("CASDOOR_ORGANIZATION"),
			Application:  v.GetString("CASDOOR_APPLICATION"),
		},
		Upload: UploadConfig{
			MaxSlipBytes:     v.GetInt64("UPLOAD_MAX_SLIP_BYTES"),
			SlipCheckTimeout: v.GetDuration("UPLOAD_SLIP_CHECK_TIMEOUT"),
			RateLimit:        v.GetInt("UPLOAD_RATE_LIMIT"),
			RateWindow:       v.GetDuration("UPLOAD_RATE_WINDOW"),
		},
		OTP: OTPConfig{
			TTL:           v.GetDuration("OTP_TTL"),
			MaxAttempts:   v.GetInt("OTP_MAX_ATTEMPTS"),
			AttemptWindow: v.GetDuration("OTP_ATTEMPT_WINDOW"),
		},
		CacheTTL:      v.GetDuration("CACHE_TTL"),
		AuthRateLimit: v.GetInt("AUTH_RATE_LIMIT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "lms-service")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("JWT_ISSUER", "lms-service")
	v.SetDefault("EMAIL_FROM", "no-reply@lms.local")
	v.SetDefault("EMAIL_FROM_NAME", "LMS")
	v.SetDefault("UPLOAD_MAX_SLIP_BYTES", 5*1024*1024)
	v.SetDefault("UPLOAD_SLIP_CHECK_TIMEOUT", "5s")
	v.SetDefault("UPLOAD_RATE_LIMIT", 5)
	v.SetDefault("UPLOAD_RATE_WINDOW", "1m")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_ATTEMPT_WINDOW", "15m")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

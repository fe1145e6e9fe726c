package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// DatabaseURL may be empty in local; users then live in memory.
	DatabaseURL string `env:"DATABASE_URL" validate:"required_unless=Env local"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1,max=100"`

	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// TrustedProxies are the only peers whose X-Forwarded-For is honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// SessionSecret is only needed by the server; see ValidateServer.
	SessionSecret string        `env:"SESSION_SECRET" validate:"omitempty,min=32"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h" validate:"min=1m"`
	ServerURL     string        `env:"SERVER_URL" envDefault:"http://localhost:8080" validate:"required,url"`

	ResetTokenTTLHours int    `env:"RESET_TOKEN_TTL_HOURS" envDefault:"24" validate:"min=1,max=168"`
	PasswordHash       string `env:"PASSWORD_HASH" envDefault:"argon2id" validate:"oneof=argon2id bcrypt"`
	BcryptCost         int    `env:"BCRYPT_COST" envDefault:"10" validate:"min=4,max=31"`

	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"log" validate:"oneof=log resend smtp"`
	MailFrom      string `env:"MAIL_FROM" envDefault:"noreply@localhost" validate:"required"`
	MailSubject   string `env:"MAIL_SUBJECT" envDefault:"Reset password instructions"`
	ResendAPIKey  string `env:"RESEND_API_KEY" validate:"required_if=MailTransport resend"`
	SMTPHost      string `env:"SMTP_HOST" validate:"required_if=MailTransport smtp"`
	SMTPPort      string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPTLS       bool   `env:"SMTP_TLS" envDefault:"false"`

	FlashEnabled bool `env:"FLASH_ENABLED" envDefault:"false"`

	SigninSuccessRedirect string `env:"SIGNIN_SUCCESS_REDIRECT"`
	SigninFailureRedirect string `env:"SIGNIN_FAILURE_REDIRECT"`
	SignupSuccessRedirect string `env:"SIGNUP_SUCCESS_REDIRECT"`
	SignupFailureRedirect string `env:"SIGNUP_FAILURE_REDIRECT"`
	SignoutRedirect       string `env:"SIGNOUT_REDIRECT"`
	ForgotSuccessRedirect string `env:"FORGOT_SUCCESS_REDIRECT"`
	ForgotFailureRedirect string `env:"FORGOT_FAILURE_REDIRECT"`
	ResetSuccessRedirect  string `env:"RESET_SUCCESS_REDIRECT"`
	ResetFailureRedirect  string `env:"RESET_FAILURE_REDIRECT"`

	ReaperSchedule string `env:"REAPER_SCHEDULE" envDefault:"@every 15m" validate:"required"`
	ReaperBatch    int    `env:"REAPER_BATCH" envDefault:"500" validate:"min=1,max=10000"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateServer checks the settings only the HTTP server needs, so other
// binaries can share Load without them.
func (c *Config) ValidateServer() error {
	if c.SessionSecret == "" {
		return errors.New("invalid config: SESSION_SECRET is required")
	}
	return nil
}

// SecureCookies reports whether cookies must carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.Env != "local"
}

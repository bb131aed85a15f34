// Package config loads the server configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-edu"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port string `mapstructure:"PORT"`

	// TokenSecretKey signs bearer tokens with HS256. Required.
	TokenSecretKey       string `mapstructure:"TOKEN_SECRET_KEY"`
	TokenExpirationHours int    `mapstructure:"TOKEN_EXPIRATION_HOURS"`
	TokenIssuer          string `mapstructure:"TOKEN_ISSUER"`
	// TokenAudience is a comma separated list of audiences.
	TokenAudience string `mapstructure:"TOKEN_AUDIENCE"`
	TokenLookup   string `mapstructure:"TOKEN_LOOKUP"`
	AuthScheme    string `mapstructure:"AUTH_SCHEME"`
	ContextKey    string `mapstructure:"CONTEXT_KEY"`

	// TOTPSecretKey is mixed with the account email to derive OTP keys. Required.
	TOTPSecretKey     string `mapstructure:"TOTP_SECRET_KEY"`
	TOTPPeriodSeconds int    `mapstructure:"TOTP_PERIOD_SECONDS"`

	DatabaseDriver      string `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN         string `mapstructure:"DATABASE_DSN"`
	DatabaseAutoMigrate bool   `mapstructure:"DATABASE_AUTO_MIGRATE"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUsername string `mapstructure:"MAIL_USERNAME"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	// RedisAddr enables the OTP attempt limiter when set.
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	OTPMaxAttempts   int           `mapstructure:"OTP_MAX_ATTEMPTS"`
	OTPAttemptWindow time.Duration `mapstructure:"OTP_ATTEMPT_WINDOW"`

	// NSQDAddr enables activity publishing when set.
	NSQDAddr string `mapstructure:"NSQD_ADDR"`
	NSQTopic string `mapstructure:"NSQ_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	UseHashid bool `mapstructure:"USE_HASHID"`
}

var _ edu.Config = (*Config)(nil)

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig() // a missing file is fine
	}

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("TOKEN_SECRET_KEY", "")
	v.SetDefault("TOKEN_EXPIRATION_HOURS", edu.DefaultTokenExpiration)
	v.SetDefault("TOKEN_ISSUER", "")
	v.SetDefault("TOKEN_AUDIENCE", "")
	v.SetDefault("TOKEN_LOOKUP", "header:Authorization")
	v.SetDefault("AUTH_SCHEME", "Bearer")
	v.SetDefault("CONTEXT_KEY", edu.DefaultContextKey)
	v.SetDefault("TOTP_SECRET_KEY", "")
	v.SetDefault("TOTP_PERIOD_SECONDS", int(edu.DefaultOTPPeriod/time.Second))
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:edu.db?cache=shared")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("MAIL_HOST", "smtp.gmail.com")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_ATTEMPT_WINDOW", "15m")
	v.SetDefault("NSQD_ADDR", "")
	v.SetDefault("NSQ_TOPIC", "edu.activity")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("USE_HASHID", false)
}

// Validate rejects configurations the server can not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TokenSecretKey) == "" {
		return errors.New("config: TOKEN_SECRET_KEY must be set")
	}
	if strings.TrimSpace(c.TOTPSecretKey) == "" {
		return errors.New("config: TOTP_SECRET_KEY must be set")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return errors.New("config: DATABASE_DRIVER must be sqlite or postgres")
	}
	if c.Port == "" {
		return errors.New("config: PORT must be set")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// MailEnabled reports whether SMTP credentials were provided.
func (c *Config) MailEnabled() bool {
	return c.MailUsername != "" && c.MailPassword != ""
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.TokenSecretKey = mask(c.TokenSecretKey)
	c.TOTPSecretKey = mask(c.TOTPSecretKey)
	c.MailPassword = mask(c.MailPassword)
	c.RedisPassword = mask(c.RedisPassword)
	return c
}

func (c *Config) GetSigningKey() string {
	return c.TokenSecretKey
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenExpiration() int {
	return c.TokenExpirationHours
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.TokenIssuer
}

func (c *Config) GetAudience() []string {
	if c.TokenAudience == "" {
		return nil
	}
	parts := strings.Split(c.TokenAudience, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) GetOTPSecret() string {
	return c.TOTPSecretKey
}

func (c *Config) GetOTPPeriod() int {
	return c.TOTPPeriodSeconds
}

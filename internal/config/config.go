// Package config loads application configuration from defaults, an optional
// YAML file, a .env file and BILLING_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// Nested keys are separated by a double underscore: BILLING_DATABASE__URL.
const EnvPrefix = "BILLING_"

// Mail transports.
const (
	TransportSMTP     = "smtp"
	TransportSendGrid = "sendgrid"
	TransportDisabled = "disabled"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	JWT      JWTConfig      `koanf:"jwt"`
	CORS     CORSConfig     `koanf:"cors"`
	Billing  BillingConfig  `koanf:"billing"`
	Mail     MailConfig     `koanf:"mail"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig configures token issuance.
type JWTConfig struct {
	SecretKey            string        `koanf:"secret_key"`
	AccessTokenDuration  time.Duration `koanf:"access_token_duration"`
	RefreshTokenDuration time.Duration `koanf:"refresh_token_duration"`
}

// CORSConfig configures allowed origins.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// BillingConfig holds balance settings.
type BillingConfig struct {
	// WelcomeDeposit is credited to every newly registered user.
	WelcomeDeposit float64 `koanf:"welcome_deposit"`
}

// MailConfig configures outgoing mail used by batch jobs.
type MailConfig struct {
	Transport    string         `koanf:"transport"`
	FromAddress  string         `koanf:"from_address"`
	AdminAddress string         `koanf:"admin_address"`
	RateLimit    float64        `koanf:"rate_limit"`
	SMTP         SMTPConfig     `koanf:"smtp"`
	SendGrid     SendGridConfig `koanf:"sendgrid"`
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// SendGridConfig configures the SendGrid transport.
type SendGridConfig struct {
	APIKey string `koanf:"api_key"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Billing: BillingConfig{
			WelcomeDeposit: 1000,
		},
		Mail: MailConfig{
			Transport:    TransportDisabled,
			FromAddress:  "billing@study-on.local",
			AdminAddress: "admin@study-on.local",
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
	}
}

// Load reads configuration. path may be empty; BILLING_CONFIG is used then.
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKeyValue maps BILLING_MAIL__SMTP__HOST to mail.smtp.host.
// Comma-separated values become lists.
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secret_key is required"))
	}
	if c.Billing.WelcomeDeposit < 0 {
		errs = append(errs, errors.New("billing.welcome_deposit must not be negative"))
	}
	if c.Mail.RateLimit < 0 {
		errs = append(errs, errors.New("mail.rate_limit must not be negative"))
	}

	switch c.Mail.Transport {
	case TransportDisabled:
	case TransportSMTP:
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, errors.New("mail.smtp.host is required for smtp transport"))
		}
	case TransportSendGrid:
		if c.Mail.SendGrid.APIKey == "" {
			errs = append(errs, errors.New("mail.sendgrid.api_key is required for sendgrid transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail.transport %q", c.Mail.Transport))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

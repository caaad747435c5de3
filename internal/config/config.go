// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package config builds the runtime configuration from CLI flags,
// environment variables and an optional config.toml.
package config

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Auth      AuthConfig
	Providers ProvidersConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
}

type ProvidersConfig struct { //nolint:govet // fieldalignment not critical for config structs
	BreachAPIBaseURL string
	BreachAPIKey     string
	PhoneAPIBaseURL  string
	RequestTimeout   time.Duration
}

// NewFromCLI builds the configuration from a parsed CLI command.
func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			Host: cmd.String("host"),
			Port: int(cmd.Int("port")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Auth: AuthConfig{
			TokenSecret: cmd.String("token-secret"),
			TokenExpiry: time.Duration(cmd.Int("token-expiry-hours")) * time.Hour,
		},
		Providers: ProvidersConfig{
			BreachAPIBaseURL: cmd.String("breach-api-base-url"),
			BreachAPIKey:     cmd.String("breach-api-key"),
			PhoneAPIBaseURL:  cmd.String("phone-api-base-url"),
			RequestTimeout:   time.Duration(cmd.Int("provider-timeout-seconds")) * time.Second,
		},
	}
}

// Flags returns all CLI flags with env var and config.toml sources.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/veilscan.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Veilscan",
			Usage:   "From display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.StringFlag{
			Name:    "token-secret",
			Usage:   "Secret used to sign bearer tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_SECRET"), toml.TOML("auth.token_secret", configFile)),
		},
		&cli.IntFlag{
			Name:    "token-expiry-hours",
			Value:   168,
			Usage:   "Bearer token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TOKEN_EXPIRY_HOURS"), toml.TOML("auth.token_expiry_hours", configFile)),
		},
		&cli.StringFlag{
			Name:    "breach-api-base-url",
			Value:   "https://haveibeenpwned.com/api/v3",
			Usage:   "Base URL of the breach database API",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BREACH_API_BASE_URL"), toml.TOML("providers.breach_api_base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "breach-api-key",
			Usage:   "API key for the breach database",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BREACH_API_KEY"), toml.TOML("providers.breach_api_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "phone-api-base-url",
			Usage:   "Base URL of the phone exposure API",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PHONE_API_BASE_URL"), toml.TOML("providers.phone_api_base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "provider-timeout-seconds",
			Value:   15,
			Usage:   "Timeout for lookup provider requests in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROVIDER_TIMEOUT_SECONDS"), toml.TOML("providers.timeout_seconds", configFile)),
		},
	}
}

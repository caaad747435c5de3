// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseConfig(t *testing.T, args ...string) *Config {
	t.Helper()
	var cfg *Config
	cmd := &cli.Command{
		Name:  "veilscan",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg = NewFromCLI(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"veilscan"}, args...)))
	require.NotNil(t, cfg)
	return cfg
}

func TestNewFromCLI_Defaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "Veilscan", cfg.SMTP.FromName)
	assert.True(t, cfg.SMTP.TLS)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, "https://haveibeenpwned.com/api/v3", cfg.Providers.BreachAPIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Providers.RequestTimeout)
}

func TestNewFromCLI_FlagOverrides(t *testing.T) {
	cfg := parseConfig(t,
		"--host", "0.0.0.0",
		"--port", "9090",
		"--log-format", "json",
		"--token-secret", "super-secret",
		"--token-expiry-hours", "24",
	)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "super-secret", cfg.Auth.TokenSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiry)
}

func TestNewFromCLI_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := parseConfig(t)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

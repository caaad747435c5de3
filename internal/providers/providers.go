// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package providers contains the external lookup capabilities consumed
// by the scan service. Each provider either returns its findings or
// fails as a whole; there are no partial results.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/veilscan/veilscan/internal/models"
)

// UsernameScanner probes platforms for an existing account.
type UsernameScanner interface {
	ScanUsername(ctx context.Context, username string) ([]models.PlatformMatch, error)
}

// EmailScanner looks an email address up in breach databases.
type EmailScanner interface {
	ScanEmail(ctx context.Context, email string) ([]models.BreachRecord, error)
}

// PhoneScanner looks a phone number up in exposure sources.
type PhoneScanner interface {
	ScanPhone(ctx context.Context, phone string) ([]models.ExposureEntry, error)
}

// Config holds the upstream endpoints and credentials.
type Config struct { //nolint:govet // fieldalignment: readability over optimization
	BreachAPIBaseURL string
	BreachAPIKey     string
	PhoneAPIBaseURL  string
	RequestTimeout   time.Duration
	UserAgent        string
}

const defaultUserAgent = "veilscan"

// newHTTPClient builds the shared client for provider calls. A stalled
// upstream simply delays the response until the timeout fires.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

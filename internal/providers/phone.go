// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/veilscan/veilscan/internal/models"
)

// PhoneExposureClient queries a phone-exposure aggregation API.
type PhoneExposureClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewPhoneExposureClient creates a phone-exposure client.
func NewPhoneExposureClient(cfg Config) *PhoneExposureClient {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &PhoneExposureClient{
		client:    newHTTPClient(cfg.RequestTimeout),
		baseURL:   strings.TrimSuffix(cfg.PhoneAPIBaseURL, "/"),
		userAgent: ua,
	}
}

type phoneExposureResponse struct {
	Entries []models.ExposureEntry `json:"entries"`
}

// ScanPhone returns every exposure entry known for the number.
func (c *PhoneExposureClient) ScanPhone(ctx context.Context, phone string) ([]models.ExposureEntry, error) {
	endpoint := fmt.Sprintf("%s/v1/exposure?phone=%s", c.baseURL, url.QueryEscape(phone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return []models.ExposureEntry{}, nil
	default:
		return nil, fmt.Errorf("phone exposure lookup returned status %d", resp.StatusCode)
	}

	var payload phoneExposureResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding phone exposure response: %w", err)
	}
	if payload.Entries == nil {
		payload.Entries = []models.ExposureEntry{}
	}
	return payload.Entries, nil
}

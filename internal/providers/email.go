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
	"time"

	"github.com/veilscan/veilscan/internal/models"
)

// BreachClient queries an HIBP-compatible breach database.
type BreachClient struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	userAgent string
}

// NewBreachClient creates a breach database client.
func NewBreachClient(cfg Config) *BreachClient {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &BreachClient{
		client:    newHTTPClient(cfg.RequestTimeout),
		baseURL:   strings.TrimSuffix(cfg.BreachAPIBaseURL, "/"),
		apiKey:    cfg.BreachAPIKey,
		userAgent: ua,
	}
}

// wireBreach is the upstream payload. Breach dates arrive date-only,
// added dates as RFC 3339.
type wireBreach struct { //nolint:govet // fieldalignment: readability over optimization
	Name         string   `json:"Name"`
	Title        string   `json:"Title"`
	Domain       string   `json:"Domain"`
	BreachDate   string   `json:"BreachDate"`
	AddedDate    string   `json:"AddedDate"`
	PwnCount     int64    `json:"PwnCount"`
	Description  string   `json:"Description"`
	DataClasses  []string `json:"DataClasses"`
	IsVerified   bool     `json:"IsVerified"`
	IsFabricated bool     `json:"IsFabricated"`
	IsSensitive  bool     `json:"IsSensitive"`
	IsRetired    bool     `json:"IsRetired"`
	IsSpamList   bool     `json:"IsSpamList"`
}

// ScanEmail returns every breach the address appeared in. An upstream
// 404 means a clean record.
func (c *BreachClient) ScanEmail(ctx context.Context, email string) ([]models.BreachRecord, error) {
	endpoint := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false",
		c.baseURL, url.PathEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("hibp-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return []models.BreachRecord{}, nil
	default:
		return nil, fmt.Errorf("breach lookup returned status %d", resp.StatusCode)
	}

	var wire []wireBreach
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding breach response: %w", err)
	}

	breaches := make([]models.BreachRecord, 0, len(wire))
	for _, w := range wire {
		breaches = append(breaches, models.BreachRecord{
			Name:         w.Name,
			Title:        w.Title,
			Domain:       w.Domain,
			BreachDate:   parseBreachTime(w.BreachDate),
			AddedDate:    parseBreachTime(w.AddedDate),
			PwnCount:     w.PwnCount,
			Description:  w.Description,
			DataClasses:  w.DataClasses,
			IsVerified:   w.IsVerified,
			IsFabricated: w.IsFabricated,
			IsSensitive:  w.IsSensitive,
			IsRetired:    w.IsRetired,
			IsSpamList:   w.IsSpamList,
		})
	}
	return breaches, nil
}

// parseBreachTime accepts both RFC 3339 stamps and bare dates. An
// unparseable value degrades to the zero time rather than failing the
// whole scan.
func parseBreachTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

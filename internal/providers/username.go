// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package providers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/veilscan/veilscan/internal/models"
)

// platform is one probed site. The URL template receives the username.
type platform struct {
	Name       string
	ProfileURL string
}

// defaultPlatforms is the probed catalog. A 2xx on the profile URL
// counts as a match; 404 means no account.
var defaultPlatforms = []platform{
	{Name: "GitHub", ProfileURL: "https://github.com/%s"},
	{Name: "Reddit", ProfileURL: "https://www.reddit.com/user/%s"},
	{Name: "X", ProfileURL: "https://x.com/%s"},
	{Name: "Instagram", ProfileURL: "https://www.instagram.com/%s/"},
	{Name: "TikTok", ProfileURL: "https://www.tiktok.com/@%s"},
	{Name: "Pinterest", ProfileURL: "https://www.pinterest.com/%s/"},
	{Name: "Twitch", ProfileURL: "https://www.twitch.tv/%s"},
	{Name: "Telegram", ProfileURL: "https://t.me/%s"},
	{Name: "Medium", ProfileURL: "https://medium.com/@%s"},
	{Name: "GitLab", ProfileURL: "https://gitlab.com/%s"},
}

// UsernameProber checks a catalog of platforms for public profiles.
type UsernameProber struct {
	client    *http.Client
	platforms []platform
	userAgent string
}

// NewUsernameProber creates a prober over the default platform catalog.
func NewUsernameProber(cfg Config) *UsernameProber {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &UsernameProber{
		client:    newHTTPClient(cfg.RequestTimeout),
		platforms: defaultPlatforms,
		userAgent: ua,
	}
}

// ScanUsername probes every platform concurrently. Any transport
// failure fails the whole scan; an HTTP 404 is a clean "no account".
func (p *UsernameProber) ScanUsername(ctx context.Context, username string) ([]models.PlatformMatch, error) {
	type probeResult struct {
		match models.PlatformMatch
		found bool
		err   error
	}

	results := make([]probeResult, len(p.platforms))
	var wg sync.WaitGroup
	for i, pl := range p.platforms {
		wg.Add(1)
		go func(i int, pl platform) {
			defer wg.Done()
			url := fmt.Sprintf(pl.ProfileURL, username)
			exists, err := p.probe(ctx, url)
			if err != nil {
				results[i] = probeResult{err: fmt.Errorf("probing %s: %w", pl.Name, err)}
				return
			}
			if exists {
				results[i] = probeResult{
					match: models.PlatformMatch{Platform: pl.Name, URL: url, Exists: true},
					found: true,
				}
			}
		}(i, pl)
	}
	wg.Wait()

	matches := []models.PlatformMatch{}
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		if res.found {
			matches = append(matches, res.match)
		}
	}
	return matches, nil
}

func (p *UsernameProber) probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		// Rate limits and blocks are upstream failures, not absences.
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package scan

import (
	"fmt"

	"github.com/veilscan/veilscan/internal/models"
)

// CalculateRiskScore maps findings to an integer score. Deterministic,
// no side effects. The result is always within [0, 100].
func CalculateRiskScore(findings models.Findings) int64 {
	var score int64

	switch f := findings.(type) {
	case nil:
	case *models.PlatformFindings:
		score = min(int64(len(f.Platforms))*5, 30)
	case *models.BreachFindings:
		score = min(int64(len(f.Breaches))*15, 50)
		// Sensitive breaches add a flat bonus on top of the ceiling.
		for _, b := range f.Breaches {
			if b.IsSensitive {
				score += 5
			}
		}
	case *models.PhoneFindings:
		score = min(int64(len(f.Entries))*10, 40)
	case *models.MetadataFindings:
		if f.Metadata.Location != nil {
			score += 20
		}
		if f.Metadata.DeviceInfo != nil {
			score += 10
		}
		if f.Metadata.Author != "" {
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Recommendations maps findings to guidance strings. Non-empty whenever
// findings are non-empty, and never claims anything that was not
// observed.
func Recommendations(findings models.Findings) []string {
	switch f := findings.(type) {
	case *models.PlatformFindings:
		return platformRecommendations(f)
	case *models.BreachFindings:
		return breachRecommendations(f)
	case *models.PhoneFindings:
		return phoneRecommendations(f)
	case *models.MetadataFindings:
		return metadataRecommendations(f)
	default:
		return nil
	}
}

func platformRecommendations(f *models.PlatformFindings) []string {
	if len(f.Platforms) == 0 {
		return []string{"No public profiles were found for this username."}
	}
	recs := []string{
		fmt.Sprintf("Your username was found on %d platform(s). Review each profile and remove information you do not want public.", len(f.Platforms)),
		"Consider using different usernames across platforms to make cross-site tracking harder.",
		"Check the privacy settings of every account that is still active.",
	}
	return recs
}

func breachRecommendations(f *models.BreachFindings) []string {
	if len(f.Breaches) == 0 {
		return []string{"This email address was not found in any known data breach."}
	}
	recs := []string{
		fmt.Sprintf("This email appeared in %d known breach(es). Change the password of every affected account.", len(f.Breaches)),
		"Enable two-factor authentication wherever it is available.",
		"Use a unique password per site so one breach cannot unlock others.",
	}
	for _, b := range f.Breaches {
		if b.IsSensitive {
			recs = append(recs, "At least one breach is marked sensitive. Be alert for targeted phishing referencing those accounts.")
			break
		}
	}
	if len(f.ExposedData) > 0 {
		recs = append(recs, fmt.Sprintf("Exposed data classes include: %d distinct categories. Review which of them still matter to you.", len(f.ExposedData)))
	}
	return recs
}

func phoneRecommendations(f *models.PhoneFindings) []string {
	if len(f.Entries) == 0 {
		return []string{"No public exposure was found for this phone number."}
	}
	return []string{
		fmt.Sprintf("This phone number appears in %d exposure source(s). Request removal where the source offers it.", len(f.Entries)),
		"Screen calls from unknown numbers and never confirm personal details to inbound callers.",
		"Consider a secondary number for sign-ups and public listings.",
	}
}

func metadataRecommendations(f *models.MetadataFindings) []string {
	recs := []string{}
	if f.Metadata.Location != nil {
		recs = append(recs, "The file embeds location coordinates. Strip metadata before sharing.")
	}
	if f.Metadata.DeviceInfo != nil {
		recs = append(recs, "The file reveals the device it was created on.")
	}
	if f.Metadata.Author != "" {
		recs = append(recs, "The file carries an author name.")
	}
	if len(recs) == 0 {
		return []string{"No identifying metadata was found in this file."}
	}
	return recs
}

// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			commonPasswords[password] = struct{}{}
		}
	}
}

// PasswordPolicy validates passwords against account requirements.
type PasswordPolicy struct {
	MinLength            int
	RequireUppercase     bool
	RequireLowercase     bool
	RequireDigit         bool
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordPolicy matches the signup requirements.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:            6,
		RequireUppercase:     true,
		RequireLowercase:     true,
		RequireDigit:         true,
		CheckCommonPasswords: true,
		CheckUserSimilarity:  true,
	}
}

// Validate returns every policy violation, empty when the password is
// acceptable. userAttributes feed the similarity check.
func (p *PasswordPolicy) Validate(password string, userAttributes ...string) []string {
	var issues []string

	if len(password) < p.MinLength {
		issues = append(issues, fmt.Sprintf("Password must be at least %d characters long.", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		issues = append(issues, "Password must contain at least one uppercase letter.")
	}
	if p.RequireLowercase && !hasLower {
		issues = append(issues, "Password must contain at least one lowercase letter.")
	}
	if p.RequireDigit && !hasDigit {
		issues = append(issues, "Password must contain at least one digit.")
	}

	if p.CheckCommonPasswords && isCommonPassword(password) {
		issues = append(issues, "This password is too common. Please choose a more secure password.")
	}

	if p.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes) {
		issues = append(issues, "Password is too similar to your personal information.")
	}

	return issues
}

// StrengthReport is the verdict of the standalone strength checker.
type StrengthReport struct {
	Strength    string   `json:"strength"` // weak, fair, strong
	Score       int      `json:"score"`    // 0-4
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// CheckStrength grades a password without touching any account state.
func (p *PasswordPolicy) CheckStrength(password string, userAttributes ...string) StrengthReport {
	issues := p.Validate(password, userAttributes...)

	score := 0
	if len(password) >= p.MinLength {
		score++
	}
	if len(password) >= 12 {
		score++
	}
	var hasDigit, hasSpecial, hasMixedCase bool
	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	hasMixedCase = hasUpper && hasLower
	if hasDigit && hasMixedCase {
		score++
	}
	if hasSpecial {
		score++
	}
	if isCommonPassword(password) {
		score = 0
	}

	strength := "weak"
	switch {
	case score >= 4 && len(issues) == 0:
		strength = "strong"
	case score >= 2 && len(issues) == 0:
		strength = "fair"
	}

	return StrengthReport{
		Strength:    strength,
		Score:       score,
		Issues:      issues,
		Suggestions: p.helpTexts(),
	}
}

func (p *PasswordPolicy) helpTexts() []string {
	texts := []string{fmt.Sprintf("Use at least %d characters.", p.MinLength)}
	if p.RequireUppercase || p.RequireLowercase {
		texts = append(texts, "Mix uppercase and lowercase letters.")
	}
	if p.RequireDigit {
		texts = append(texts, "Include at least one digit.")
	}
	texts = append(texts,
		"Add symbols for extra strength.",
		"Avoid commonly used passwords.",
		"Avoid your own name or email address.",
	)
	return texts
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(password)]
	return exists
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		if attr == "" {
			continue
		}
		attrLower := strings.ToLower(attr)

		if strings.Contains(passwordLower, attrLower) || strings.Contains(attrLower, passwordLower) {
			return true
		}
		if similarity(passwordLower, attrLower) > 0.7 {
			return true
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := longestCommonSubsequence(a, b)
	maxLen := max(len(a), len(b))

	return float64(lcs) / float64(maxLen)
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}

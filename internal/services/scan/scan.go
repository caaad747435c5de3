// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package scan owns the scan lifecycle: record creation, provider
// delegation, risk scoring and completion, plus the owning user's
// aggregate update.
package scan

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/models"
	"github.com/veilscan/veilscan/internal/providers"
	"github.com/veilscan/veilscan/internal/repository"
)

const (
	// DefaultPageSize applies when the caller supplies no limit.
	DefaultPageSize = 10
	// MaxPageSize is the server-side clamp for listing requests.
	MaxPageSize = 50
	// recentScanCount is how many summaries the stats overview carries.
	recentScanCount = 5
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern    = regexp.MustCompile(`^[\d\s+()-]+$`)
)

// Service drives a scan from creation to completion or failure.
type Service struct {
	repo      *repository.Repository
	usernames providers.UsernameScanner
	emails    providers.EmailScanner
	phones    providers.PhoneScanner
}

// NewService creates a scan service over the given store and providers.
func NewService(repo *repository.Repository, usernames providers.UsernameScanner, emails providers.EmailScanner, phones providers.PhoneScanner) *Service {
	return &Service{
		repo:      repo,
		usernames: usernames,
		emails:    emails,
		phones:    phones,
	}
}

// Start validates and normalizes the input, persists a processing scan
// record, runs the matching lookup provider, scores the findings and
// completes the record. On provider or persistence failure after the
// record exists, the record stays in processing for out-of-band
// reconciliation; it is never retried automatically and never reports a
// score it has not computed.
func (s *Service) Start(ctx context.Context, userID int64, scanType models.ScanType, rawInput string) (*models.Scan, error) {
	input, err := normalizeInput(scanType, rawInput)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scan := &models.Scan{
		ID:        uuid.NewString(),
		UserID:    userID,
		ScanType:  scanType,
		ScanInput: input,
		Status:    models.ScanStatusProcessing,
		CreatedAt: now,
	}
	if err := s.repo.CreateScan(ctx, scan); err != nil {
		return nil, apperror.Internal("failed to create scan record", err)
	}

	findings, err := s.lookup(ctx, scanType, input)
	if err != nil {
		slog.Warn("scan_provider_failed",
			"scan_id", scan.ID, "scan_type", scanType, "error", err)
		return nil, apperror.Upstream("lookup provider failed", err)
	}

	scan.Results = models.ScanResults{
		Findings:        findings,
		Recommendations: Recommendations(findings),
	}
	scan.RiskScore = CalculateRiskScore(findings)
	scan.Status = models.ScanStatusCompleted
	scan.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	if err := s.repo.UpdateScan(ctx, scan); err != nil {
		slog.Error("scan_persist_failed", "scan_id", scan.ID, "error", err)
		return nil, apperror.Internal("failed to persist scan results", err)
	}

	if err := s.repo.ApplyScanCompletion(ctx, userID, scan.RiskScore, scan.CompletedAt.Time); err != nil {
		slog.Error("user_aggregate_update_failed", "scan_id", scan.ID, "user_id", userID, "error", err)
		return nil, apperror.Internal("failed to update user stats", err)
	}

	slog.Info("scan_completed",
		"scan_id", scan.ID, "user_id", userID,
		"scan_type", scanType, "risk_score", scan.RiskScore)
	return scan, nil
}

// lookup dispatches to the provider matching the scan type.
func (s *Service) lookup(ctx context.Context, scanType models.ScanType, input string) (models.Findings, error) {
	switch scanType {
	case models.ScanTypeUsername:
		matches, err := s.usernames.ScanUsername(ctx, input)
		if err != nil {
			return nil, err
		}
		return &models.PlatformFindings{Platforms: matches}, nil
	case models.ScanTypeEmail:
		breaches, err := s.emails.ScanEmail(ctx, input)
		if err != nil {
			return nil, err
		}
		return &models.BreachFindings{
			Breaches:    breaches,
			ExposedData: exposedDataClasses(breaches),
		}, nil
	case models.ScanTypePhone:
		entries, err := s.phones.ScanPhone(ctx, input)
		if err != nil {
			return nil, err
		}
		return &models.PhoneFindings{Entries: entries}, nil
	default:
		return nil, apperror.Validation("unsupported scan type")
	}
}

// exposedDataClasses is the deduplicated union of every breach's data
// classes, first-seen order.
func exposedDataClasses(breaches []models.BreachRecord) []string {
	seen := make(map[string]struct{})
	classes := []string{}
	for _, b := range breaches {
		for _, dc := range b.DataClasses {
			if _, ok := seen[dc]; ok {
				continue
			}
			seen[dc] = struct{}{}
			classes = append(classes, dc)
		}
	}
	return classes
}

// normalizeInput validates and normalizes rawInput for the scan type.
// Validation fails before any record is created.
func normalizeInput(scanType models.ScanType, rawInput string) (string, error) {
	input := strings.TrimSpace(rawInput)
	if input == "" {
		return "", apperror.Validation("scan input is required")
	}

	switch scanType {
	case models.ScanTypeUsername:
		if !usernamePattern.MatchString(input) {
			return "", apperror.Validation("username must be 3-30 characters of letters, numbers, underscores or hyphens")
		}
	case models.ScanTypeEmail:
		input = strings.ToLower(input)
		if !emailPattern.MatchString(input) {
			return "", apperror.Validation("a valid email address is required")
		}
	case models.ScanTypePhone:
		if !phonePattern.MatchString(input) {
			return "", apperror.Validation("a valid phone number is required")
		}
	default:
		return "", apperror.Validation("unsupported scan type")
	}
	return input, nil
}

// Get fetches a scan scoped to the requesting user. Absent and
// foreign-owned scans are indistinguishable to the caller.
func (s *Service) Get(ctx context.Context, userID int64, scanID string) (*models.Scan, error) {
	scan, err := s.repo.GetScanByUserAndID(ctx, userID, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("scan not found")
		}
		return nil, apperror.Internal("failed to fetch scan", err)
	}
	return scan, nil
}

// Page describes a listing window after server-side clamping.
type Page struct {
	Number int   `json:"page"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
	Pages  int64 `json:"pages"`
}

// List returns the user's scans newest first, optionally filtered by
// type. Limit is clamped to [1, MaxPageSize]; page is at least 1.
func (s *Service) List(ctx context.Context, userID int64, scanType models.ScanType, page, limit int) ([]models.Scan, Page, error) {
	if scanType != "" && !scanType.Valid() {
		return nil, Page{}, apperror.Validation("invalid scan type filter")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.ScanFilter{ScanType: scanType}
	scans, err := s.repo.ListScansByUser(ctx, userID, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, Page{}, apperror.Internal("failed to list scans", err)
	}
	total, err := s.repo.CountScansByUser(ctx, userID, filter)
	if err != nil {
		return nil, Page{}, apperror.Internal("failed to count scans", err)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return scans, Page{Number: page, Limit: limit, Total: total, Pages: pages}, nil
}

// Stats is the per-user scan overview.
type Stats struct {
	TotalScans  int64                    `json:"total_scans"`
	StatsByType []repository.TypeStats   `json:"stats_by_type"`
	RecentScans []repository.ScanSummary `json:"recent_scans"`
}

// Stats aggregates the user's scans by type and attaches the most
// recent summaries.
func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	byType, err := s.repo.AggregateScansByType(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to aggregate scans", err)
	}
	total, err := s.repo.CountScansByUser(ctx, userID, repository.ScanFilter{})
	if err != nil {
		return nil, apperror.Internal("failed to count scans", err)
	}
	recent, err := s.repo.RecentScanSummaries(ctx, userID, recentScanCount)
	if err != nil {
		return nil, apperror.Internal("failed to fetch recent scans", err)
	}
	return &Stats{TotalScans: total, StatsByType: byType, RecentScans: recent}, nil
}

// Delete removes a scan owned by the user. The user's aggregate
// counters are running totals and are not recomputed.
func (s *Service) Delete(ctx context.Context, userID int64, scanID string) error {
	err := s.repo.DeleteScanByUserAndID(ctx, userID, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("scan not found")
		}
		return apperror.Internal("failed to delete scan", err)
	}
	slog.Info("scan_deleted", "scan_id", scanID, "user_id", userID)
	return nil
}

// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/veilscan/veilscan/internal/models"
)

// ScanFilter narrows scan listings.
type ScanFilter struct {
	ScanType models.ScanType // empty means all types
}

// TypeStats is the per-type aggregate of a user's scans.
type TypeStats struct {
	ScanType     models.ScanType `db:"scan_type" json:"scan_type"`
	Count        int64           `db:"count" json:"count"`
	AvgRiskScore float64         `db:"avg_risk_score" json:"avg_risk_score"`
	MaxRiskScore int64           `db:"max_risk_score" json:"max_risk_score"`
}

// ScanSummary is the condensed shape used in recent-scan listings.
type ScanSummary struct {
	ID        string          `db:"id" json:"id"`
	ScanType  models.ScanType `db:"scan_type" json:"scan_type"`
	ScanInput string          `db:"scan_input" json:"scan_input"`
	RiskScore int64           `db:"risk_score" json:"risk_score"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// CreateScan inserts a new scan record.
func (r *Repository) CreateScan(ctx context.Context, scan *models.Scan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scans (id, user_id, scan_type, scan_input, status, risk_score, results_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.UserID, scan.ScanType, scan.ScanInput, scan.Status,
		scan.RiskScore, scan.Results, scan.CreatedAt)
	return err
}

// UpdateScan persists the mutable fields of a scan record.
func (r *Repository) UpdateScan(ctx context.Context, scan *models.Scan) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, risk_score = ?, results_json = ?, completed_at = ? WHERE id = ?`,
		scan.Status, scan.RiskScore, scan.Results, scan.CompletedAt, scan.ID)
	return err
}

// GetScanByUserAndID retrieves a scan scoped to its owner. A scan owned
// by another user reports ErrNotFound, same as an absent one.
func (r *Repository) GetScanByUserAndID(ctx context.Context, userID int64, scanID string) (*models.Scan, error) {
	var scan models.Scan
	err := r.db.GetContext(ctx, &scan,
		`SELECT * FROM scans WHERE id = ? AND user_id = ?`, scanID, userID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &scan, nil
}

// ListScansByUser returns a page of the user's scans, newest first.
func (r *Repository) ListScansByUser(ctx context.Context, userID int64, filter ScanFilter, limit, offset int) ([]models.Scan, error) {
	query := `SELECT * FROM scans WHERE user_id = ?`
	args := []any{userID}
	if filter.ScanType != "" {
		query += ` AND scan_type = ?`
		args = append(args, filter.ScanType)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	scans := []models.Scan{}
	if err := r.db.SelectContext(ctx, &scans, query, args...); err != nil {
		return nil, err
	}
	return scans, nil
}

// CountScansByUser counts the user's scans matching the filter.
func (r *Repository) CountScansByUser(ctx context.Context, userID int64, filter ScanFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM scans WHERE user_id = ?`
	args := []any{userID}
	if filter.ScanType != "" {
		query += ` AND scan_type = ?`
		args = append(args, filter.ScanType)
	}
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteScanByUserAndID removes a scan only if it belongs to the user.
// Returns ErrNotFound otherwise. The owner's aggregate counters are
// running totals and stay untouched.
func (r *Repository) DeleteScanByUserAndID(ctx context.Context, userID int64, scanID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scans WHERE id = ? AND user_id = ?`, scanID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AggregateScansByType groups the user's scans by type with count,
// average and maximum risk score.
func (r *Repository) AggregateScansByType(ctx context.Context, userID int64) ([]TypeStats, error) {
	stats := []TypeStats{}
	err := r.db.SelectContext(ctx, &stats,
		`SELECT scan_type,
		        COUNT(*) AS count,
		        AVG(risk_score) AS avg_risk_score,
		        MAX(risk_score) AS max_risk_score
		 FROM scans
		 WHERE user_id = ?
		 GROUP BY scan_type
		 ORDER BY scan_type`, userID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentScanSummaries returns the newest scan summaries for a user.
func (r *Repository) RecentScanSummaries(ctx context.Context, userID int64, limit int) ([]ScanSummary, error) {
	summaries := []ScanSummary{}
	err := r.db.SelectContext(ctx, &summaries,
		`SELECT id, scan_type, scan_input, risk_score, created_at
		 FROM scans
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

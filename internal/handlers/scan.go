// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/veilscan/veilscan/internal/apperror"
	"github.com/veilscan/veilscan/internal/middleware"
	"github.com/veilscan/veilscan/internal/models"
)

type usernameScanRequest struct {
	Username string `json:"username"`
}

// ScanUsername runs a username scan for the authenticated user.
func (h *Handlers) ScanUsername(c echo.Context) error {
	var req usernameScanRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	return h.startScan(c, models.ScanTypeUsername, req.Username)
}

type emailScanRequest struct {
	Email string `json:"email"`
}

// ScanEmail runs an email breach scan for the authenticated user.
func (h *Handlers) ScanEmail(c echo.Context) error {
	var req emailScanRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	return h.startScan(c, models.ScanTypeEmail, req.Email)
}

type phoneScanRequest struct {
	Phone string `json:"phone"`
}

// ScanPhone runs a phone exposure scan for the authenticated user.
func (h *Handlers) ScanPhone(c echo.Context) error {
	var req phoneScanRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	return h.startScan(c, models.ScanTypePhone, req.Phone)
}

func (h *Handlers) startScan(c echo.Context, scanType models.ScanType, input string) error {
	user := middleware.CurrentUser(c)

	scanRecord, err := h.scans.Start(c.Request().Context(), user.ID, scanType, input)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, string(scanType)+" scan completed successfully", map[string]any{
		"scan_id": scanRecord.ID,
		"scan":    scanRecord,
	})
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

// PasswordStrength grades a password without creating a scan record.
func (h *Handlers) PasswordStrength(c echo.Context) error {
	var req passwordStrengthRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperror.Validation("invalid request body"))
	}
	if req.Password == "" {
		return respondError(c, apperror.Validation("password is required"))
	}

	user := middleware.CurrentUser(c)
	report := h.auth.PasswordPolicy().CheckStrength(req.Password, user.Email)
	return respondOK(c, http.StatusOK, "Password strength checked", report)
}

// GetScan fetches one scan owned by the authenticated user.
func (h *Handlers) GetScan(c echo.Context) error {
	user := middleware.CurrentUser(c)

	scanRecord, err := h.scans.Get(c.Request().Context(), user.ID, c.Param("scanId"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "", map[string]any{"scan": scanRecord})
}

// ListScans pages through the user's scans, optionally by type.
func (h *Handlers) ListScans(c echo.Context) error {
	user := middleware.CurrentUser(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	scanType := models.ScanType(c.QueryParam("scan_type"))

	scans, pagination, err := h.scans.List(c.Request().Context(), user.ID, scanType, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "", map[string]any{
		"scans":      scans,
		"pagination": pagination,
	})
}

// ScanStats returns the per-type aggregates and recent scans.
func (h *Handlers) ScanStats(c echo.Context) error {
	user := middleware.CurrentUser(c)

	stats, err := h.scans.Stats(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "", stats)
}

// DeleteScan removes a scan owned by the authenticated user.
func (h *Handlers) DeleteScan(c echo.Context) error {
	user := middleware.CurrentUser(c)

	if err := h.scans.Delete(c.Request().Context(), user.ID, c.Param("scanId")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, "Scan deleted successfully", nil)
}

// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers of the JSON API.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veilscan/veilscan/internal/services/auth"
	"github.com/veilscan/veilscan/internal/services/scan"
)

// Handlers bundles all HTTP handlers.
type Handlers struct {
	auth  *auth.Service
	scans *scan.Service
}

// New creates a new Handlers instance.
func New(authService *auth.Service, scanService *scan.Service) *Handlers {
	return &Handlers{auth: authService, scans: scanService}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

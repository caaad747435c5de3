// Copyright 2025 The Veilscan Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veilscan/veilscan/internal/apperror"
)

// respondError maps the error taxonomy onto HTTP. Internal errors are
// logged with full context and surfaced generically.
func respondError(c echo.Context, err error) error {
	kind := apperror.KindOf(err)

	body := map[string]any{
		"success": false,
		"message": apperror.MessageOf(err),
	}

	var status int
	switch kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindAuthentication:
		status = http.StatusUnauthorized
	case apperror.KindUnverifiedAccount:
		status = http.StatusForbidden
		body["requires_verification"] = true
	case apperror.KindUpstream:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
		slog.Error("internal_error",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	return c.JSON(status, body)
}

// respondOK writes the success envelope.
func respondOK(c echo.Context, status int, message string, data any) error {
	body := map[string]any{
		"success": true,
	}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

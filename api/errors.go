package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reqstly/reqstly/auth"
	"github.com/reqstly/reqstly/domain"
	"github.com/reqstly/reqstly/ticket"
)

// fail maps a domain error to its HTTP response. Credential failures,
// including clone detection, all surface as the same 401 so the response
// leaks nothing about which check failed.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrPossibleClone):
		return respondError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		return respondError(c, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, domain.ErrUnauthorized):
		return respondError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		return respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrConflict):
		return respondError(c, http.StatusConflict, "account already exists")
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrCeremonyNotFound),
		errors.Is(err, ticket.ErrTitleRequired),
		errors.Is(err, ticket.ErrTitleTooLong),
		errors.Is(err, ticket.ErrDescriptionTooLong):
		return respondError(c, http.StatusBadRequest, err.Error())
	default:
		return respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func respondError(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]any{
		"error": message,
		"code":  code,
	})
}

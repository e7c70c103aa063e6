package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"yoursell/internal/domain"
)

// writeError maps domain errors to HTTP responses. Every rejection carries
// the specific rule that failed so a client can tell "bid too low" from
// "auction closed".
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyOnAuction),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrDuplicateBid),
		errors.Is(err, domain.ErrConcurrencyConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrBidOutOfRange),
		errors.Is(err, domain.ErrBadInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		return c.JSON(status, map[string]string{"error": "internal server error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

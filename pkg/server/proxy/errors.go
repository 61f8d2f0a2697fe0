package proxy

import (
	"errors"
	"fmt"
	"net/http"

	"pixgallery/pkg/log"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/upstream"

	"github.com/labstack/echo/v4"
)

var (
	// ErrMalformedBody is returned when a JSON request body cannot be decoded.
	ErrMalformedBody = errors.New("malformed request body")

	errNoCredential = errors.New("API key is required")
)

const internalErrorMessage = "Internal proxy error"

// errorHandler is the outermost boundary: whatever reaches it leaves as a JSON envelope.
func errorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := internalErrorMessage

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", ctx.Request().Method).
			Str("path", ctx.Request().URL.Path).
			Msg("Request failed inside the proxy")
	}

	if writeErr := ctx.JSON(status, normalize.Failure(normalize.CodeInternalProxyError, message)); writeErr != nil {
		log.Warn().Err(writeErr).Msg("Failed to write error response")
	}
}

// missingParameter answers 400 with the standard envelope.
func missingParameter(ctx echo.Context, message string) error {
	log.Debug().Str("path", ctx.Request().URL.Path).Str("reason", message).Msg("Rejected request")
	return ctx.JSON(http.StatusBadRequest, normalize.Failure(normalize.CodeMissingParameter, message))
}

// upstreamFailure maps errors from the upstream client onto envelopes.
func upstreamFailure(ctx echo.Context, err error) error {
	if errors.Is(err, upstream.ErrInvalidPath) {
		return missingParameter(ctx, "Invalid path parameter")
	}
	return fmt.Errorf("%s %s: %w", ctx.Request().Method, ctx.Request().URL.Path, err)
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/sandbox"
)

// errorBody is the {"error": "..."} shape every storefront service answers
// failures with. The client reads the message from this field.
type errorBody struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler renders handler failures the way the storefront services
// do. A *sandbox.Error keeps its status and message, echo errors keep their
// code, and anything else becomes a logged 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			// Streaming responses such as the CSV report fail after the header.
			requestLogger(log, c).Warn().Err(err).Msg("error after response was committed")
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorBody{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var se *sandbox.Error
	if errors.As(err, &se) {
		if se.Status >= http.StatusInternalServerError {
			requestLogger(log, c).Error().Err(err).Int("status", se.Status).Msg("sandbox failure")
		}
		return se.Status, se.Message
	}

	// Router misses, auth middleware rejections and handler 400s.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, httpErrorMessage(he)
	}

	requestLogger(log, c).Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprintf("%v", m)
	}
}

func requestLogger(log zerolog.Logger, c echo.Context) *zerolog.Logger {
	l := log.With().
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Logger()
	return &l
}

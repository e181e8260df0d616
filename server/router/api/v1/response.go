package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/briefly/ai/report"
	"github.com/hrygo/briefly/internal/logging"
)

const codeConfigurationError = "configuration_error"

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func configurationError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error: "AI service is not configured",
		Code:  codeConfigurationError,
	})
}

// writeReportError maps report errors to HTTP responses.
func writeReportError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, report.ErrInvalidInput):
		return badRequest(c, "No content provided")
	case errors.Is(err, report.ErrConfiguration):
		return configurationError(c)
	default:
		logging.FromContext(c.Request().Context()).Error("report request failed", "error", err)
		return c.JSON(http.StatusBadGateway, errorResponse{
			Error:     "Failed to generate report",
			Retryable: true,
		})
	}
}

package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/briefly/ai/metrics"
)

type adminStatsResponse struct {
	*metrics.Stats
	Timestamp time.Time `json:"timestamp"`
}

// GetAdminStats returns usage counters since process start.
func (s *APIV1Service) GetAdminStats(c echo.Context) error {
	return c.JSON(http.StatusOK, adminStatsResponse{
		Stats:     s.Metrics.Stats(),
		Timestamp: s.now().UTC(),
	})
}

type authCheckResponse struct {
	AuthConfigured bool `json:"authConfigured"`
	AIConfigured   bool `json:"aiConfigured"`
}

// AuthCheck reports which integrations are configured without exposing secrets.
func (s *APIV1Service) AuthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, authCheckResponse{
		AuthConfigured: s.authenticator.Configured(),
		AIConfigured:   s.Generator != nil,
	})
}

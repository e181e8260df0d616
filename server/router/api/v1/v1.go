package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/ai/metrics"
	"github.com/hrygo/briefly/ai/report"
	"github.com/hrygo/briefly/internal/profile"
	"github.com/hrygo/briefly/server/auth"
	"github.com/hrygo/briefly/server/middleware"
)

// maxAudioUploadSize matches the transcription API's upload limit.
const maxAudioUploadSize = "25M"

type APIV1Service struct {
	// Domain Services
	Generator *report.Generator // nil when the LLM is not configured
	LLM       llm.Service       // nil when the LLM is not configured

	// Shared Infra
	Profile       *profile.Profile
	Metrics       *metrics.PrometheusExporter
	authenticator *auth.Authenticator
	limiter       *middleware.RateLimiter
	now           func() time.Time
}

// NewAPIV1Service wires the report services. llmService may be nil, in which
// case the AI routes answer with a configuration error.
func NewAPIV1Service(profile *profile.Profile, llmService llm.Service, exporter *metrics.PrometheusExporter) *APIV1Service {
	if exporter == nil {
		exporter = metrics.NewPrometheusExporter(metrics.DefaultConfig())
	}

	service := &APIV1Service{
		Profile:       profile,
		Metrics:       exporter,
		authenticator: auth.NewAuthenticator(profile.AuthSecret),
		limiter:       middleware.NewRateLimiter(profile.GenerateRatePerMinute),
		now:           time.Now,
	}

	if profile.IsAIEnabled() && llmService != nil {
		generator, err := report.NewGenerator(&report.Config{APIKey: profile.ALLMAPIKey}, llmService, exporter)
		if err != nil {
			slog.Warn("Failed to initialize report generator", "error", err)
		} else {
			service.Generator = generator
			service.LLM = llmService
			slog.Info("Report generator initialized",
				"provider", profile.ALLMProvider,
				"model", profile.ALLMModel,
			)
		}
	} else {
		slog.Info("AI features disabled", "enabled", profile.IsAIEnabled())
	}

	if !service.authenticator.Configured() {
		slog.Warn("Auth secret not configured, authenticated routes will reject all requests")
	}

	return service
}

// RegisterRoutes registers the REST API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	corsHandler := echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	})
	apiGroup := echoServer.Group("/api", corsHandler)

	// Public
	apiGroup.GET("/auth/check", s.AuthCheck)

	authenticated := middleware.Auth(s.authenticator)
	apiGroup.POST("/generate-report", s.GenerateReport, authenticated)
	apiGroup.POST("/finalize-report", s.FinalizeReport, authenticated)
	apiGroup.POST("/export", s.ExportReport, authenticated)
	apiGroup.POST("/export/preview", s.PreviewReport, authenticated)
	apiGroup.POST("/transcribe", s.Transcribe, authenticated, echomiddleware.BodyLimit(maxAudioUploadSize))
	apiGroup.GET("/admin/stats", s.GetAdminStats, authenticated, middleware.RequireAdmin())
}

package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/briefly/ai/report"
	"github.com/hrygo/briefly/internal/logging"
	"github.com/hrygo/briefly/plugin/webhook"
	"github.com/hrygo/briefly/server/auth"
)

type generateReportRequest struct {
	Content  string `json:"content"`
	UserRole string `json:"userRole"`
}

type generateReportResponse struct {
	StructuredReport string   `json:"structuredReport"`
	Tasks            []string `json:"tasks"`
	Success          bool     `json:"success"`
}

// GenerateReport structures a raw update into a weekly report with tasks.
func (s *APIV1Service) GenerateReport(c echo.Context) error {
	req := &generateReportRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return writeReportError(c, report.ErrInvalidInput)
	}

	ctx := c.Request().Context()
	if !s.limiter.Allow("generate:" + auth.GetUserID(ctx)) {
		return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded", Retryable: true})
	}
	if s.Generator == nil {
		return configurationError(c)
	}

	result, err := s.Generator.Generate(ctx, req.Content, report.ParseRole(req.UserRole))
	if err != nil {
		return writeReportError(c, err)
	}

	return c.JSON(http.StatusOK, generateReportResponse{
		StructuredReport: result.Report,
		Tasks:            result.Tasks,
		Success:          true,
	})
}

type finalizeReportRequest struct {
	DraftContent      string   `json:"draftContent"`
	StructuredContent string   `json:"structuredContent"`
	Tasks             []string `json:"tasks"`
	Title             string   `json:"title"`
}

type finalizeReportResponse struct {
	Success bool                    `json:"success"`
	Report  *report.FinalizedReport `json:"report"`
}

// FinalizeReport accepts the user's edited report. The report is logged and
// announced to the configured webhook; it is not stored.
func (s *APIV1Service) FinalizeReport(c echo.Context) error {
	req := &finalizeReportRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	userID := auth.GetUserID(ctx)
	finalized, err := report.Finalize(report.FinalizeInput{
		DraftContent:      req.DraftContent,
		StructuredContent: req.StructuredContent,
		Tasks:             req.Tasks,
		Title:             req.Title,
	}, userID, s.now().UTC())
	if errors.Is(err, report.ErrInvalidInput) {
		return badRequest(c, "No structured content provided")
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to finalize report"})
	}

	logging.FromContext(ctx).Info("report finalized",
		"report_id", finalized.ID,
		"title", finalized.Title,
		"tasks", len(finalized.Tasks),
		"content_length", len(finalized.StructuredContent),
	)
	s.Metrics.RecordFinalized()

	if url := s.Profile.FinalizeWebhookURL; url != "" {
		webhook.PostAsync(&webhook.WebhookRequestPayload{
			Report:       finalized,
			URL:          url,
			ActivityType: webhook.ActivityReportFinalized,
			Creator:      userID,
		})
	}

	return c.JSON(http.StatusOK, finalizeReportResponse{Success: true, Report: finalized})
}

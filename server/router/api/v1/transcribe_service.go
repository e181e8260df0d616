package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/internal/logging"
	"github.com/hrygo/briefly/server/auth"
)

type transcribeResponse struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
}

// Transcribe converts an uploaded "audio" form file to text.
func (s *APIV1Service) Transcribe(c echo.Context) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "No audio file provided")
	}

	ctx := c.Request().Context()
	if !s.limiter.Allow("transcribe:" + auth.GetUserID(ctx)) {
		return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded", Retryable: true})
	}
	if s.LLM == nil {
		return configurationError(c)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Failed to read audio file")
	}
	defer file.Close()

	text, err := s.LLM.Transcribe(ctx, &llm.TranscribeRequest{
		Filename: fileHeader.Filename,
		Audio:    file,
		Language: c.FormValue("language"),
	})
	s.Metrics.RecordTranscription(err == nil)
	if err != nil {
		logging.FromContext(ctx).Error("transcription failed", "filename", fileHeader.Filename, "error", err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "Failed to transcribe audio", Retryable: true})
	}

	return c.JSON(http.StatusOK, transcribeResponse{Text: text, Success: true})
}

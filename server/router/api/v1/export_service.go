package v1

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/briefly/internal/logging"
	"github.com/hrygo/briefly/plugin/export"
)

type exportRequest struct {
	StructuredContent string   `json:"structuredContent"`
	Title             string   `json:"title"`
	Tasks             []string `json:"tasks"`
	Format            string   `json:"format"`
}

type exportResponse struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// ExportReport renders the report in the requested format. With ?download=1
// the rendered text is returned as an attachment.
func (s *APIV1Service) ExportReport(c echo.Context) error {
	req := &exportRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	format := export.FormatMarkdown
	if req.Format != "" {
		f, err := export.ParseFormat(req.Format)
		if err != nil {
			return badRequest(c, err.Error())
		}
		format = f
	}

	content, err := export.Render(req.StructuredContent, req.Title, req.Tasks, format)
	if err != nil {
		return badRequest(c, err.Error())
	}
	filename := export.Filename(req.Title, format)
	mimeType := export.MimeType(format)
	s.Metrics.RecordExport(string(format))

	logging.FromContext(c.Request().Context()).Debug("report exported",
		"format", format,
		"filename", filename,
		"length", len(content),
	)

	if download, _ := strconv.ParseBool(c.QueryParam("download")); download {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		return c.Blob(http.StatusOK, mimeType+"; charset=utf-8", []byte(content))
	}

	return c.JSON(http.StatusOK, exportResponse{
		Content:  content,
		Filename: filename,
		MimeType: mimeType,
	})
}

type previewResponse struct {
	HTML string `json:"html"`
}

// PreviewReport renders the Markdown export as HTML.
func (s *APIV1Service) PreviewReport(c echo.Context) error {
	req := &exportRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	html, err := export.RenderHTML(export.Markdown(req.StructuredContent, req.Title, req.Tasks))
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("failed to render preview", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to render preview"})
	}
	return c.JSON(http.StatusOK, previewResponse{HTML: html})
}

package export

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename derives a download file name from the report title.
func Filename(title string, format Format) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	slug := strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(title), "-"))

	switch format {
	case FormatMarkdown:
		return slug + ".md"
	case FormatEmail:
		return slug + "-email.txt"
	case FormatSlack:
		return slug + "-slack.txt"
	default:
		return slug + ".txt"
	}
}

// MimeType returns the content type used when downloading the export.
func MimeType(format Format) string {
	if format == FormatMarkdown {
		return "text/markdown"
	}
	return "text/plain"
}

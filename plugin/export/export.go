// Package export renders a structured report into Markdown, email and chat
// message text. Rendering is pure: the same input always yields the same bytes.
package export

import (
	"strings"

	"github.com/pkg/errors"
)

// Format is an export target.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatEmail    Format = "email"
	FormatSlack    Format = "slack"
)

// DefaultTitle is used when the caller gives no title.
const DefaultTitle = "Weekly Report"

// Formats lists the supported formats in display order.
var Formats = []Format{FormatMarkdown, FormatEmail, FormatSlack}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range Formats {
		if f == supported {
			return f, nil
		}
	}
	return "", errors.Errorf("unsupported export format %q, expected one of %s", s, formatNames())
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Render converts the report to the given format.
func Render(report, title string, tasks []string, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(report, title, tasks), nil
	case FormatEmail:
		return Email(report, title, tasks), nil
	case FormatSlack:
		return Slack(report, title, tasks), nil
	default:
		return "", errors.Errorf("unsupported export format %q", format)
	}
}

// style describes how one format wraps headings, tasks and the document.
type style struct {
	preamble    func(title string) string
	primary     func(text string) string // "# " headings
	secondary   func(text string) string // "## " headings
	keepHeading bool                     // emit heading lines untouched
	tasksHeader string
	bullet      string
	afterTasks  string
	footer      string
}

var markdownStyle = style{
	preamble:    func(title string) string { return "# " + title + "\n\n" },
	keepHeading: true,
	tasksHeader: "## Extracted Tasks\n\n",
	bullet:      "- [ ] ",
	afterTasks:  "\n",
}

var emailStyle = style{
	preamble:    func(title string) string { return "Subject: " + title + "\n\n" },
	primary:     func(text string) string { return "**" + text + "**" },
	secondary:   func(text string) string { return "**" + text + "**" },
	tasksHeader: "**Upcoming Tasks:**\n\n",
	bullet:      "- ",
	afterTasks:  "\n",
	footer:      "\nBest regards,\n[Your Name]",
}

var slackStyle = style{
	preamble:    func(title string) string { return ":memo: *" + title + "*\n\n" },
	primary:     func(text string) string { return "*" + text + "*" },
	secondary:   func(text string) string { return "*" + text + "*" },
	tasksHeader: "*Upcoming Tasks:*\n\n",
	bullet:      ":white_small_square: ",
	afterTasks:  "\n",
}

// Markdown renders the report as a Markdown document with a checkbox task list.
func Markdown(report, title string, tasks []string) string {
	return render(markdownStyle, report, title, tasks)
}

// Email renders the report as an email body with a subject line and signature.
func Email(report, title string, tasks []string) string {
	return render(emailStyle, report, title, tasks)
}

// Slack renders the report as a chat message using Slack mrkdwn.
func Slack(report, title string, tasks []string) string {
	return render(slackStyle, report, title, tasks)
}

func render(st style, report, title string, tasks []string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	b.WriteString(st.preamble(title))

	report = strings.ReplaceAll(report, "\r\n", "\n")
	for _, line := range strings.Split(report, "\n") {
		switch {
		case st.keepHeading && isHeading(line):
			b.WriteString(line)
			b.WriteString("\n\n")
		case !st.keepHeading && strings.HasPrefix(line, "# "):
			b.WriteString(st.primary(strings.TrimPrefix(line, "# ")))
			b.WriteString("\n\n")
		case !st.keepHeading && strings.HasPrefix(line, "## "):
			b.WriteString(st.secondary(strings.TrimPrefix(line, "## ")))
			b.WriteString("\n\n")
		case strings.TrimSpace(line) == "":
			b.WriteString("\n")
		default:
			b.WriteString(line)
			b.WriteString("\n\n")
		}
	}

	if len(tasks) > 0 {
		b.WriteString(st.tasksHeader)
		for _, task := range tasks {
			b.WriteString(st.bullet)
			b.WriteString(task)
			b.WriteString("\n")
		}
		b.WriteString(st.afterTasks)
	}

	b.WriteString(st.footer)
	return b.String()
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ")
}

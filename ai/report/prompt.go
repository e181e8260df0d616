package report

import (
	"fmt"
	"strings"
)

// Role is the caller-supplied hint that selects role-specific phrasing.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleDesigner  Role = "designer"
	RoleManager   Role = "manager"
	RoleMarketing Role = "marketing"
)

// ParseRole maps a raw role tag to a Role. An empty tag means developer;
// unknown tags are kept as-is and simply get no extra emphasis.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleDeveloper
	}
	return Role(s)
}

// Known reports whether the role has dedicated prompt instructions.
func (r Role) Known() bool {
	_, ok := roleInstructions[r]
	return ok
}

var roleInstructions = map[Role]string{
	RoleManager:   "This report is for a manager, so focus on team accomplishments, resource allocation, and strategic planning aspects.",
	RoleDesigner:  "This report is for a designer, so emphasize design milestones, user experience improvements, and visual aspects.",
	RoleDeveloper: "This report is for a developer, so highlight technical achievements, code improvements, and implementation details.",
	RoleMarketing: "This report is for a marketing professional, so focus on campaign results, content creation, and audience engagement metrics.",
}

// Section is one heading the structuring prompt asks for.
type Section struct {
	Title   string
	Purpose string
}

// Sections lists the report sections in the order the model is asked to write them.
var Sections = []Section{
	{Title: "Accomplishments", Purpose: "What was completed this week"},
	{Title: "Progress", Purpose: "Ongoing work that's not yet complete"},
	{Title: "Challenges/Blockers", Purpose: "Any issues that are impeding progress"},
	{Title: "Next Week", Purpose: "What will be worked on next week"},
	{Title: "Need Help With", Purpose: "Areas where assistance is needed"},
}

const structureSystemPrompt = "You are a professional report writer assistant specializing in creating well-structured weekly progress reports for work. Your task is to organize input content into clearly defined sections, improve clarity, fix grammar, and ensure professional tone while preserving all the original information and meaning."

const structurePromptHeader = `
Please structure the following work update into a professional weekly report with these sections:
`

const structurePromptRules = `
If any section doesn't have clear content in the input, leave it minimal rather than inventing details.
Format each section with a clear heading (## Section Title) and maintain a professional tone.
Preserve all technical details and project specifics.

Here's the content to structure:

{{content}}
`

var structurePromptTemplate = buildStructureTemplate(Sections)

func buildStructureTemplate(sections []Section) string {
	var b strings.Builder
	b.WriteString(structurePromptHeader)
	for i, section := range sections {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, section.Title, section.Purpose)
	}
	b.WriteString(structurePromptRules)
	return b.String()
}

const taskSystemPrompt = `You are a task extraction specialist. Identify clear action items, todos, and next steps from the provided content. Each task should be a clear, actionable item written as a short imperative sentence.
Return ONLY a JSON object of the form {"tasks": ["task one", "task two"]}. If there are no tasks, return {"tasks": []}.`

// BuildPrompt assembles the structuring prompt for the given content and role.
func BuildPrompt(content string, role Role) string {
	prompt := strings.Replace(structurePromptTemplate, "{{content}}", content, 1)
	if instruction, ok := roleInstructions[role]; ok {
		prompt += "\n" + instruction
	}
	return prompt
}

func buildTaskPrompt(content string) string {
	return "Extract tasks from this content: " + content
}

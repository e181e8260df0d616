package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusFinalized is the only status a finalized report can have.
const StatusFinalized = "finalized"

// FinalizeInput is the user-edited draft submitted for finalization.
type FinalizeInput struct {
	DraftContent      string
	StructuredContent string
	Tasks             []string
	Title             string
}

// FinalizedReport is a report the user accepted. It is logged and announced,
// never stored.
type FinalizedReport struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	StructuredContent string    `json:"structuredContent"`
	Tasks             []string  `json:"tasks"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// DefaultFinalTitle is the title given to a finalized report submitted without one.
func DefaultFinalTitle(now time.Time) string {
	return "Weekly Report - " + now.Format("2006-01-02")
}

// Finalize builds a FinalizedReport with a fresh id. Blank structured content
// is ErrInvalidInput.
func Finalize(in FinalizeInput, userID string, now time.Time) (*FinalizedReport, error) {
	if strings.TrimSpace(in.StructuredContent) == "" {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultFinalTitle(now)
	}
	tasks := make([]string, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		if t = strings.TrimSpace(t); t != "" {
			tasks = append(tasks, t)
		}
	}

	return &FinalizedReport{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             title,
		Content:           in.DraftContent,
		StructuredContent: in.StructuredContent,
		Tasks:             tasks,
		Status:            StatusFinalized,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

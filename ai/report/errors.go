package report

import "github.com/pkg/errors"

var (
	// ErrInvalidInput is returned when the update text is empty.
	ErrInvalidInput = errors.New("no content provided")

	// ErrConfiguration is returned at construction when the LLM credential is missing.
	ErrConfiguration = errors.New("LLM API key not configured")

	// ErrGenerationFailed is returned when the structuring call errors or yields
	// no usable report. It is safe for the user to retry.
	ErrGenerationFailed = errors.New("failed to generate report")
)

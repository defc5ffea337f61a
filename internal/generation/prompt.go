package generation

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/trip-planner-api/internal/domain"
)

//go:embed prompts/trip_itinerary.tmpl
var promptFS embed.FS

const defaultTemplateName = "prompts/trip_itinerary.tmpl"

// PromptData is the data made available to the prompt template.
type PromptData struct {
	Destination  string
	StartDate    string
	EndDate      string
	CreatedBy    string
	DurationDays int
}

// PromptBuilder renders the itinerary prompt for a request.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder creates a PromptBuilder. An empty templatePath selects the
// embedded default template.
func NewPromptBuilder(templatePath string) (*PromptBuilder, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.ParseFS(promptFS, defaultTemplateName)
	} else {
		if _, statErr := os.Stat(templatePath); statErr != nil {
			return nil, fmt.Errorf("%w: prompt template %q: %v", ErrInvalidConfig, templatePath, statErr)
		}
		tmpl, err = template.ParseFiles(templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	return &PromptBuilder{tmpl: tmpl.Option("missingkey=error")}, nil
}

// Build renders the prompt for req.
func (b *PromptBuilder) Build(req domain.GenerationRequest) (string, error) {
	days := req.DurationDays()
	if days < 1 {
		days = 1
	}

	data := PromptData{
		Destination:  req.Destination,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedBy:    req.CreatedBy,
		DurationDays: days,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

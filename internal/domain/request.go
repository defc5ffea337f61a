package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for trip start and end dates.
const DateLayout = "2006-01-02"

// GenerationRequest carries the traveler's input for a new itinerary.
// All fields are required and have no defaults.
type GenerationRequest struct {
	Destination string `json:"destination" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	CreatedBy   string `json:"createdBy" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (r *GenerationRequest) Normalize() {
	r.Destination = strings.TrimSpace(r.Destination)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
	r.CreatedBy = strings.TrimSpace(r.CreatedBy)
}

// Validate returns ErrMissingFields wrapped in a ValidationError naming the
// first empty field.
func (r GenerationRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"destination", r.Destination},
		{"startDate", r.StartDate},
		{"endDate", r.EndDate},
		{"createdBy", r.CreatedBy},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(f.name, "is required", ErrMissingFields)
		}
	}
	return nil
}

// DurationDays returns the inclusive number of days between StartDate and
// EndDate. It returns 0 when either date does not parse or the range is
// inverted, leaving the day count up to the model.
func (r GenerationRequest) DurationDays() int {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

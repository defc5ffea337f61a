package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trip is the itinerary document produced by the language model.
//
// The model is instructed to follow this shape but is not guaranteed to, so
// decoding is permissive: unknown fields are ignored, title and destination
// may be empty and leaf values of the wrong JSON type are coerced (see
// decode.go). Days is the payload of value.
type Trip struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Destination  string        `json:"destination,omitempty"`
	StartDate    string        `json:"startDate,omitempty"`
	EndDate      string        `json:"endDate,omitempty"`
	CreatedBy    string        `json:"createdBy,omitempty"`
	Participants []Participant `json:"participants"`
	Days         []DayPlan     `json:"days"`
	Notes        string        `json:"notes,omitempty"`
	Budget       Budget        `json:"budget"`
	GeneratedAt  time.Time     `json:"generatedAt"`
}

// Participant is a person travelling on the trip.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// DayPlan is one day of the itinerary.
type DayPlan struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Location   string     `json:"location,omitempty"`
	Activities []Activity `json:"activities"`
}

// Activity is a single scheduled item within a day.
type Activity struct {
	Time        string `json:"time,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Budget is the estimated and spent cost of the trip.
type Budget struct {
	Currency  string `json:"currency,omitempty"`
	Estimated Amount `json:"estimated"`
	Spent     Amount `json:"spent"`
}

// Amount is a monetary value that also accepts numeric strings such as
// "1500" or "$1,500" when decoding model output.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Amount(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: amount must be a number or numeric string", ErrValidation)
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if cleaned == "" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not numeric", ErrValidation, s)
	}
	*a = Amount(f)
	return nil
}

// ActivityCount returns the total number of activities across all days.
func (t *Trip) ActivityCount() int {
	n := 0
	for _, d := range t.Days {
		n += len(d.Activities)
	}
	return n
}

package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Model output drifts from the requested shape in small ways: numbers where
// strings were asked for, a list of notes instead of one string, a bare name
// instead of a participant object. The decoders below accept those variants
// so that a usable itinerary is never discarded over a leaf type.

// text decodes any JSON value as a string. Strings are unquoted, arrays are
// joined one element per line, null is empty and other values keep their
// compact JSON form.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	*t = text(textOf(data))
	return nil
}

func textOf(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if s := textOf(item); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, "\n")
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err == nil {
		return buf.String()
	}
	return string(trimmed)
}

var integerPattern = regexp.MustCompile(`-?\d+`)

// integer decodes a JSON number or the first integer found in a string such
// as "1" or "Day 2". Anything else decodes as zero.
type integer int

func (n *integer) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = integer(int(f))
		return nil
	}

	match := integerPattern.FindString(textOf(data))
	if match == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		*n = 0
		return nil
	}
	*n = integer(v)
	return nil
}

// listOf decodes a JSON array of T. A lone value is treated as a list of one
// and null or an absent field as an empty list.
func listOf[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	if trimmed[0] != '[' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []T{one}, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// UnmarshalJSON implements json.Unmarshaler. Leaf fields tolerate type drift;
// the document itself must still be a JSON object.
func (t *Trip) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           text            `json:"id"`
		Title        text            `json:"title"`
		Destination  text            `json:"destination"`
		StartDate    text            `json:"startDate"`
		EndDate      text            `json:"endDate"`
		CreatedBy    text            `json:"createdBy"`
		Participants json.RawMessage `json:"participants"`
		Days         json.RawMessage `json:"days"`
		Notes        text            `json:"notes"`
		Budget       Budget          `json:"budget"`
		GeneratedAt  text            `json:"generatedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	participants, err := listOf[Participant](raw.Participants)
	if err != nil {
		return err
	}
	days, err := listOf[DayPlan](raw.Days)
	if err != nil {
		return err
	}

	*t = Trip{
		ID:           string(raw.ID),
		Title:        string(raw.Title),
		Destination:  string(raw.Destination),
		StartDate:    string(raw.StartDate),
		EndDate:      string(raw.EndDate),
		CreatedBy:    string(raw.CreatedBy),
		Participants: participants,
		Days:         days,
		Notes:        string(raw.Notes),
		Budget:       raw.Budget,
	}
	if ts, err := time.Parse(time.RFC3339, string(raw.GeneratedAt)); err == nil {
		t.GeneratedAt = ts
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A bare string is the
// participant's name.
func (p *Participant) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		*p = Participant{Name: textOf(data)}
		return nil
	}

	var raw struct {
		Name  text `json:"name"`
		Email text `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Participant{Name: string(raw.Name), Email: string(raw.Email)}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DayPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Day        integer         `json:"day"`
		Date       text            `json:"date"`
		Location   text            `json:"location"`
		Activities json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	activities, err := listOf[Activity](raw.Activities)
	if err != nil {
		return err
	}
	*d = DayPlan{
		Day:        int(raw.Day),
		Date:       string(raw.Date),
		Location:   string(raw.Location),
		Activities: activities,
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A bare string is the activity's
// title.
func (a *Activity) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		*a = Activity{Title: textOf(data)}
		return nil
	}

	var raw struct {
		Time        text `json:"time"`
		Title       text `json:"title"`
		Description text `json:"description"`
		Location    text `json:"location"`
		Notes       text `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Activity{
		Time:        string(raw.Time),
		Title:       string(raw.Title),
		Description: string(raw.Description),
		Location:    string(raw.Location),
		Notes:       string(raw.Notes),
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A bare amount is the estimate.
func (b *Budget) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		var estimated Amount
		if err := json.Unmarshal(data, &estimated); err != nil {
			return err
		}
		*b = Budget{Estimated: estimated}
		return nil
	}

	var raw struct {
		Currency  text   `json:"currency"`
		Estimated Amount `json:"estimated"`
		Spent     Amount `json:"spent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Budget{Currency: string(raw.Currency), Estimated: raw.Estimated, Spent: raw.Spent}
	return nil
}

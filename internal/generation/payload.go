package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/phrazzld/trip-planner-api/internal/domain"
)

var (
	openingFence = regexp.MustCompile("^```[A-Za-z]*")
	closingFence = regexp.MustCompile("```$")
)

// ExtractJSON repairs generated text into a JSON object candidate: a code
// fence wrapping the text is removed and the text is sliced from the first
// '{' to the last '}'. Fence markers inside the text are left alone. Text
// without braces is returned fence-stripped and trimmed.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimSpace(openingFence.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimSpace(closingFence.ReplaceAllString(cleaned, ""))

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		return cleaned[first : last+1]
	}
	return cleaned
}

// ParseTrip decodes generated text into a Trip. Unknown fields are ignored.
func ParseTrip(text string) (*domain.Trip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(KindMalformedEnvelope, "response contained no generated text", nil)
	}

	var trip domain.Trip
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &trip); err != nil {
		return nil, NewError(KindInvalidPayload, "generated text is not a valid itinerary", err)
	}
	return &trip, nil
}

package generation

import (
	"context"
	"fmt"
)

// Params are the sampling parameters sent with every completion request.
type Params struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// CompletionRequest is a single prompt sent to the external service.
type CompletionRequest struct {
	Prompt string
	Params Params
}

// Completion is the part of the service's response envelope the client uses.
type Completion struct {
	// Text is the generated text of the first candidate. Empty when the
	// envelope carried no text.
	Text string

	// FinishReason is the service's reason for stopping, if reported.
	FinishReason string
}

// Transport sends a prompt to the external text-generation service.
// Implementations must abort the call when ctx is done.
type Transport interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// TransportError is a structured failure reported by the external service.
type TransportError struct {
	// StatusCode is the HTTP status code, or 0 if unknown.
	StatusCode int

	// Status is the service's symbolic status, e.g. RESOURCE_EXHAUSTED.
	Status string

	Message string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("generation service error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("generation service error %d: %s", e.StatusCode, e.Message)
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/trip-planner-api/internal/config"
	"github.com/phrazzld/trip-planner-api/internal/generation"
	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// Transport implements generation.Transport using the Gemini API.
type Transport struct {
	// logger is used for structured logging
	logger *slog.Logger

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// Transport implements generation.Transport.
var _ generation.Transport = (*Transport)(nil)

// NewTransport creates a Transport from the LLM configuration.
func NewTransport(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Transport, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Transport{
		logger: logger.With(slog.String("component", "gemini")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Complete sends the prompt to the configured model.
func (t *Transport) Complete(
	ctx context.Context,
	req generation.CompletionRequest,
) (*generation.Completion, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(req.Params.Temperature),
		TopK:             genai.Ptr(req.Params.TopK),
		TopP:             genai.Ptr(req.Params.TopP),
		MaxOutputTokens:  req.Params.MaxOutputTokens,
		ResponseMIMEType: jsonMIMEType,
	}

	t.logger.DebugContext(ctx, "Calling Gemini API",
		"model", t.model,
		"prompt_length", len(req.Prompt))

	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, translateError(err)
	}

	completion := &generation.Completion{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		t.logger.WarnContext(ctx, "Gemini response contained no candidates")
		return completion, nil
	}

	candidate := resp.Candidates[0]
	completion.FinishReason = string(candidate.FinishReason)
	if candidate.Content != nil {
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		completion.Text = sb.String()
	}

	t.logger.DebugContext(ctx, "Gemini API call completed",
		"finish_reason", completion.FinishReason,
		"text_length", len(completion.Text))

	return completion, nil
}

// Ping verifies the model is reachable with the configured credentials.
func (t *Transport) Ping(ctx context.Context) error {
	if _, err := t.client.Models.Get(ctx, t.model, nil); err != nil {
		return translateError(err)
	}
	return nil
}

// translateError converts a Gemini API error into a generation.TransportError.
// Other errors are returned unchanged.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generation.TransportError{
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &generation.TransportError{
			StatusCode: apiErrPtr.Code,
			Status:     apiErrPtr.Status,
			Message:    apiErrPtr.Message,
		}
	}
	return err
}

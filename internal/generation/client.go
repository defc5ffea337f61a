package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/trip-planner-api/internal/config"
	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
)

// DefaultRequestTimeout bounds a single call to the transport.
const DefaultRequestTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	Params             Params
	RequestTimeout     time.Duration
	Retry              RetryPolicy
	PromptTemplatePath string
}

// ConfigFromLLM builds a Config from the application's LLM settings.
func ConfigFromLLM(cfg config.LLMConfig) Config {
	return Config{
		Params: Params{
			Temperature:     float32(cfg.Temperature),
			TopK:            float32(cfg.TopK),
			TopP:            float32(cfg.TopP),
			MaxOutputTokens: int32(cfg.MaxOutputTokens),
		},
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  time.Duration(cfg.RetryBaseDelayMillis) * time.Millisecond,
		},
		PromptTemplatePath: cfg.PromptTemplatePath,
	}
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithClock sets the clock used for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator sets the function used to assign trip ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *Client) { c.newID = newID }
}

// WithClassifier replaces the default failure classifier.
func WithClassifier(classifier *Classifier) Option {
	return func(c *Client) { c.classifier = classifier }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client generates itineraries through a Transport, retrying transient
// failures according to its RetryPolicy.
type Client struct {
	transport  Transport
	prompts    *PromptBuilder
	classifier *Classifier
	params     Params
	timeout    time.Duration
	retry      RetryPolicy
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// Client implements Generator.
var _ Generator = (*Client)(nil)

// NewClient creates a Client.
func NewClient(transport Transport, cfg Config, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", ErrInvalidConfig)
	}

	prompts, err := NewPromptBuilder(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	c := &Client{
		transport:  transport,
		prompts:    prompts,
		classifier: NewClassifier(),
		params:     cfg.Params,
		timeout:    timeout,
		retry:      cfg.Retry,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateTrip validates req, then runs attempts under the retry policy until
// one produces a trip or a failure is final.
func (c *Client) GenerateTrip(ctx context.Context, req domain.GenerationRequest) (*domain.Trip, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.String("component", "generation"))

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewError(KindInvalidRequest, "missing required fields", err)
	}

	prompt, err := c.prompts.Build(req)
	if err != nil {
		return nil, NewError(KindUnknown, "failed to build prompt", err)
	}

	policy := c.retry
	userNotify := policy.Notify
	policy.Notify = func(err error, delay time.Duration) {
		log.Warn("generation attempt failed, retrying",
			slog.String("kind", string(KindOf(err))),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		if userNotify != nil {
			userNotify(err, delay)
		}
	}

	var (
		trip    *domain.Trip
		lastErr error
		attempt int
	)
	err = policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		t, err := c.attempt(ctx, prompt)
		if err != nil {
			lastErr = err
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		if !isGenerationError(err) {
			err = c.contextFailure(err, lastErr)
		}
		log.Error("trip generation failed",
			slog.Int("attempts", attempt),
			slog.String("kind", string(KindOf(err))),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("trip generated",
		slog.String("trip_id", trip.ID),
		slog.Int("attempts", attempt),
		slog.Int("days", len(trip.Days)),
		slog.Int("activities", trip.ActivityCount()))
	return trip, nil
}

// attempt performs one send/parse cycle.
func (c *Client) attempt(ctx context.Context, prompt string) (*domain.Trip, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.transport.Complete(callCtx, CompletionRequest{Prompt: prompt, Params: c.params})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, NewError(KindTimeout, "generation request timed out", err)
		}
		kind := c.classifier.Classify(err)
		return nil, NewError(kind, "generation request failed", err)
	}
	if completion == nil {
		return nil, NewError(KindMalformedEnvelope, "response envelope was empty", nil)
	}

	trip, err := ParseTrip(completion.Text)
	if err != nil {
		return nil, err
	}

	trip.ID = c.newID()
	trip.GeneratedAt = c.now().UTC()
	return trip, nil
}

// contextFailure converts a bare context error from the retry loop into an
// Error, preferring the last attempt's failure when there was one.
func (c *Client) contextFailure(err, lastErr error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "generation deadline exceeded", err)
	}
	if lastErr != nil {
		return lastErr
	}
	return NewError(KindUnknown, "generation aborted", err)
}

func isGenerationError(err error) bool {
	var genErr *Error
	return errors.As(err, &genErr)
}

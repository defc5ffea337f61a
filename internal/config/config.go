package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// PromptTemplatePath overrides the embedded itinerary prompt when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	// BaseURL overrides the Gemini API endpoint. Empty means the SDK default.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`

	Temperature     float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopK            float64 `mapstructure:"top_k" validate:"gte=0"`
	TopP            float64 `mapstructure:"top_p" validate:"gte=0,lte=1"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" validate:"gt=0"`

	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"gt=0"`
	MaxRetries            int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelayMillis  int `mapstructure:"retry_base_delay_ms" validate:"gt=0"`
}

// RateLimitConfig controls per-client admission to the generation endpoint.
type RateLimitConfig struct {
	WindowSeconds  int `mapstructure:"window_seconds" validate:"gt=0"`
	MaxRequests    int `mapstructure:"max_requests" validate:"gt=0"`
	SweepThreshold int `mapstructure:"sweep_threshold" validate:"gt=0"`

	// RedisURL switches the limiter to a shared Redis-backed window when set.
	RedisURL string `mapstructure:"redis_url" validate:"omitempty,url"`
}

// TaskConfig contains settings for the deferred persistence task runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
	MaxAttempts int `mapstructure:"max_attempts" validate:"gt=0"`
}

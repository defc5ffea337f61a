package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable key, e.g.
// TRIP_SERVER_PORT for server.port.
const envPrefix = "TRIP"

// aliases maps configuration keys to additional, unprefixed environment
// variables commonly set by hosting platforms.
var aliases = map[string][]string{
	"server.port":          {"PORT"},
	"database.url":         {"DATABASE_URL"},
	"llm.gemini_api_key":   {"GEMINI_API_KEY"},
	"rate_limit.redis_url": {"REDIS_URL"},
}

// setDefaults registers default values for all optional settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_k", 40)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.max_output_tokens", 4096)
	v.SetDefault("llm.request_timeout_seconds", 30)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base_delay_ms", 3000)

	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 10)
	v.SetDefault("rate_limit.sweep_threshold", 1000)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.max_attempts", 5)
}

// keys lists every configuration key so that environment variables are
// honored even for keys without a default.
var keys = []string{
	"server.port", "server.log_level",
	"database.url",
	"llm.gemini_api_key", "llm.model_name", "llm.prompt_template_path", "llm.base_url",
	"llm.temperature", "llm.top_k", "llm.top_p", "llm.max_output_tokens",
	"llm.request_timeout_seconds", "llm.max_retries", "llm.retry_base_delay_ms",
	"rate_limit.window_seconds", "rate_limit.max_requests", "rate_limit.sweep_threshold",
	"rate_limit.redis_url",
	"task.worker_count", "task.queue_size", "task.max_attempts",
}

// Load configuration from environment variables and optionally a config.yaml
// file in the working directory. Environment variables take precedence over
// values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		envName := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		bindArgs := append([]string{key, envName}, aliases[key]...)
		if err := v.BindEnv(bindArgs...); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

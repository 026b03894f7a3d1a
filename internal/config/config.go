package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/discord-day-summarizer/internal/models"
)

// Backend names accepted for LLM_BACKEND.
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

// Load builds the configuration from environment variables, loading a .env
// file first if one is present. The result is validated once and then
// passed by value into component constructors.
func Load() (*models.Config, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	config := &models.Config{
		// Discord settings
		DiscordToken:          getEnv("DISCORD_TOKEN", ""),
		GuildID:               getEnv("GUILD_ID", ""),
		MaxMessagesPerChannel: getEnvInt("MAX_MESSAGES_PER_CHANNEL", 1000),
		FetchWorkers:          getEnvInt("FETCH_WORKERS", 4),

		// Generation backend settings
		LLMBackend:     getEnv("LLM_BACKEND", BackendOllama),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.2"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:     getEnvInt("LLM_TIMEOUT", 120),
		LLMTemperature: getEnvFloat32("LLM_TEMPERATURE", 0.3),
		LLMTopP:        getEnvFloat32("LLM_TOP_P", 0.9),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
		SummaryWorkers: getEnvInt("SUMMARY_WORKERS", 2),

		// Report output
		OutputDir: getEnv("OUTPUT_DIR", "."),

		// Report archive (optional)
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseTimeout: getEnvInt("SUPABASE_TIMEOUT", 10),

		// Report delivery (optional)
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),

		// Scheduled runs (optional)
		ScheduleCron: getEnv("SCHEDULE_CRON", ""),

		// App settings
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks that required values are set and consistent.
func validate(cfg *models.Config) error {
	if cfg.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.GuildID == "" {
		return fmt.Errorf("GUILD_ID is required")
	}

	if cfg.MaxMessagesPerChannel <= 0 {
		return fmt.Errorf("MAX_MESSAGES_PER_CHANNEL must be positive, got %d", cfg.MaxMessagesPerChannel)
	}
	if cfg.FetchWorkers <= 0 {
		return fmt.Errorf("FETCH_WORKERS must be positive, got %d", cfg.FetchWorkers)
	}
	if cfg.SummaryWorkers <= 0 {
		return fmt.Errorf("SUMMARY_WORKERS must be positive, got %d", cfg.SummaryWorkers)
	}
	if cfg.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %d", cfg.LLMTimeout)
	}
	if cfg.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLMMaxTokens)
	}

	switch cfg.LLMBackend {
	case BackendOllama:
		if cfg.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for the ollama backend")
		}
		if cfg.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_MODEL is required for the ollama backend")
		}
	case BackendGemini:
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
	default:
		return fmt.Errorf("LLM_BACKEND must be one of: %s, %s; got %s", BackendOllama, BackendGemini, cfg.LLMBackend)
	}

	// Optional features must be configured fully or not at all.
	if (cfg.SupabaseURL == "") != (cfg.SupabaseKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set together")
	}
	if (cfg.TelegramToken == "") != (cfg.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvInt64 retrieves environment variable as int64 or returns default value
func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvFloat32 retrieves environment variable as float32 or returns default value
func getEnvFloat32(key string, defaultValue float32) float32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 32)
	if err != nil {
		return defaultValue
	}

	return float32(value)
}

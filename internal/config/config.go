package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Keys     APIKeys
	Ai       AIConfig
	Pipeline PipelineConfig
	Sync     SyncConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SyncLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BodyLimitMB        int
	SessionTTL         time.Duration
	OtelEnabled        bool
	OtelEndpoint       string
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
}

type AIConfig struct {
	// Collaborator providers: "gemini", "openai" or "ollama"
	ExtractionProvider string
	ExtractionModel    string
	FormatProvider     string
	FormatModel        string
	AssistantProvider  string
	AssistantModel     string

	// Visualization renderers selectable per request
	GeminiRenderModel string
	OpenAIRenderModel string
	DefaultRenderer   string
	RenderLayout      string // "fixed" or "responsive"

	OllamaBaseURL string
	OpenAIBaseURL string

	CacheTTL time.Duration
}

type PipelineConfig struct {
	FormatConcurrency int
	RenderConcurrency int
	TargetParagraphs  int
	MaxParagraphs     int
	RescueContext     int
	FetchTimeout      time.Duration
}

type SyncConfig struct {
	Throttle          time.Duration
	SuppressionWindow time.Duration
	Strategy          string // "directional" or "nearest-center"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SyncLogFilePath:    getEnv("SYNC_LOG_FILE_PATH", "logs/sync.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BodyLimitMB:        getEnvAsInt("BODY_LIMIT_MB", 40),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", time.Hour),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			ExtractionProvider: getEnv("EXTRACTION_PROVIDER", "gemini"),
			ExtractionModel:    getEnv("EXTRACTION_MODEL", "gemini-2.0-flash"),
			FormatProvider:     getEnv("FORMAT_PROVIDER", "gemini"),
			FormatModel:        getEnv("FORMAT_MODEL", "gemini-2.0-flash"),
			AssistantProvider:  getEnv("ASSISTANT_PROVIDER", "gemini"),
			AssistantModel:     getEnv("ASSISTANT_MODEL", "gemini-2.0-flash"),
			GeminiRenderModel:  getEnv("GEMINI_RENDER_MODEL", "gemini-2.0-flash"),
			OpenAIRenderModel:  getEnv("OPENAI_RENDER_MODEL", "gpt-4o-mini"),
			DefaultRenderer:    getEnv("DEFAULT_RENDERER", "gemini"),
			RenderLayout:       getEnv("RENDER_LAYOUT", "fixed"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			CacheTTL:           getEnvAsDuration("LLM_CACHE_TTL", 24*time.Hour),
		},
		Pipeline: PipelineConfig{
			FormatConcurrency: getEnvAsInt("FORMAT_CONCURRENCY", 4),
			RenderConcurrency: getEnvAsInt("RENDER_CONCURRENCY", 4),
			TargetParagraphs:  getEnvAsInt("CHUNK_TARGET_PARAGRAPHS", 3),
			MaxParagraphs:     getEnvAsInt("CHUNK_MAX_PARAGRAPHS", 5),
			RescueContext:     getEnvAsInt("CHUNK_RESCUE_CONTEXT", 300),
			FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
		},
		Sync: SyncConfig{
			Throttle:          getEnvAsDuration("SYNC_THROTTLE", 150*time.Millisecond),
			SuppressionWindow: getEnvAsDuration("SYNC_SUPPRESSION_WINDOW", 800*time.Millisecond),
			Strategy:          getEnv("SYNC_STRATEGY", "directional"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("150ms", "1h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

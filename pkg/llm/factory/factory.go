package factory

import (
	"fmt"

	"concept-visualizer-be/pkg/llm"
	"concept-visualizer-be/pkg/llm/gemini"
	"concept-visualizer-be/pkg/llm/ollama"
	"concept-visualizer-be/pkg/llm/openai"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Settings carries everything any provider might need; each provider
// reads only its own fields.
type Settings struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case ProviderGemini:
		if s.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(s.GeminiAPIKey, s.Model), nil
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or a base URL")
		}
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, s.OpenAIBaseURL, s.Model), nil
	case ProviderOllama:
		return ollama.NewOllamaProvider(s.OllamaBaseURL, s.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"concept-visualizer-be/pkg/llm"
)

const (
	DefaultBaseURL = "http://localhost:11434"

	chatPath = "/api/chat"
	// keep the model resident between the burst of render and format calls
	// a single visualization makes
	defaultKeepAlive = "10m"
	maxResponseBytes = 8 << 20
)

var errEmptyReply = errors.New("ollama returned an empty message")

// StatusError is a non-200 reply from the Ollama server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama error: status %d, body: %s", e.Code, e.Body)
}

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	KeepAlive string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		KeepAlive: defaultKeepAlive,
		Client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   chatOptions   `json:"options"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// ollama only knows system, user and assistant
func normalizeRole(role string) string {
	switch role {
	case llm.RoleSystem:
		return llm.RoleSystem
	case llm.RoleAssistant, "model":
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}

func (o *OllamaProvider) newRequest(history []llm.Message, options llm.Options) chatRequest {
	req := chatRequest{
		Model:     o.ModelName,
		Messages:  make([]chatMessage, 0, len(history)),
		KeepAlive: o.KeepAlive,
		Options: chatOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
	if options.Model != "" {
		req.Model = options.Model
	}
	for _, msg := range history {
		req.Messages = append(req.Messages, chatMessage{
			Role:    normalizeRole(msg.Role),
			Content: msg.Content,
		})
	}
	return req
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{Temperature: 0.7}, opts...)

	body, err := json.Marshal(o.newRequest(history, options))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", &StatusError{Code: res.StatusCode, Body: string(raw)}
	}

	var reply chatResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if reply.Message.Content == "" {
		return "", errEmptyReply
	}
	return reply.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

package chatbot

import (
	"context"
	"fmt"
	"strings"

	"concept-visualizer-be/internal/constant"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/llm"
)

type ChatHistory struct {
	Chat string `json:"chat"`
	Role string `json:"role"`
}

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)

// Assistant answers questions about a piece of text.
type Assistant interface {
	Answer(ctx context.Context, question, textContext string, history []*ChatHistory) (string, error)
}

type LLMAssistant struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

var _ Assistant = &LLMAssistant{}

func NewLLMAssistant(provider llm.LLMProvider, log logger.ILogger) *LLMAssistant {
	return &LLMAssistant{provider: provider, logger: log}
}

// Answer returns the model's answer rendered as HTML.
func (a *LLMAssistant) Answer(ctx context.Context, question, textContext string, history []*ChatHistory) (string, error) {
	prompt := BuildPrompt(question, textContext, history)
	a.logger.Debug("Assistant", "Asking question", map[string]interface{}{
		"question_length": len(question),
		"context_length":  len(textContext),
		"history":         len(history),
	})

	answer, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return MarkdownToHTML(answer), nil
}

func BuildPrompt(question, textContext string, history []*ChatHistory) string {
	return fmt.Sprintf(constant.AssistantPromptV1, FormatHistory(history), textContext, question)
}

// FormatHistory renders earlier turns as a PREVIOUS CONVERSATION block, or
// nothing when there are none.
func FormatHistory(history []*ChatHistory) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		if h == nil {
			continue
		}
		speaker := "ASSISTANT"
		if h.Role == ChatMessageRoleUser {
			speaker = "USER"
		}
		lines = append(lines, speaker+": "+h.Chat)
	}
	return "\nPREVIOUS CONVERSATION:\n" + strings.Join(lines, "\n") + "\n"
}

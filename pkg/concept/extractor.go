package concept

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"concept-visualizer-be/internal/constant"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/llm"
	"concept-visualizer-be/pkg/utils"
)

// Extractor finds concepts in a text. Returned offsets are byte offsets
// into text and are not yet refined.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Concept, error)
}

var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

type LLMExtractor struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

var _ Extractor = &LLMExtractor{}

func NewLLMExtractor(provider llm.LLMProvider, log logger.ILogger) *LLMExtractor {
	return &LLMExtractor{provider: provider, logger: log}
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]Concept, error) {
	prompt := fmt.Sprintf(constant.ConceptExtractionPromptV1, text)
	response, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	concepts, err := ParseExtraction(text, response)
	if err != nil {
		e.logger.Warn("ConceptExtractor", "Unusable extraction response", map[string]interface{}{
			"error":    err.Error(),
			"response": utils.Truncate(response, 500),
		})
		return nil, err
	}

	e.logger.Info("ConceptExtractor", "Concepts extracted", map[string]interface{}{"count": len(concepts)})
	return concepts, nil
}

// ParseExtraction pulls the JSON array out of a model response and keeps
// the entries with a string title, string description and numeric
// offsets. Offsets in the response count characters and are converted to
// byte offsets into text.
func ParseExtraction(text, response string) ([]Concept, error) {
	match := jsonArrayPattern.FindString(response)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrExtraction)
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(match), &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty concept list", ErrExtraction)
	}

	concepts := make([]Concept, 0, len(entries))
	for _, entry := range entries {
		title, ok1 := entry["title"].(string)
		description, ok2 := entry["description"].(string)
		start, ok3 := entry["startOffset"].(float64)
		end, ok4 := entry["endOffset"].(float64)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		concepts = append(concepts, Concept{
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(description),
			StartOffset: charToByteOffset(text, int(start)),
			EndOffset:   charToByteOffset(text, int(end)),
		})
	}
	if len(concepts) == 0 {
		return nil, fmt.Errorf("%w: no well-formed concepts", ErrExtraction)
	}
	return concepts, nil
}

// charToByteOffset maps a rune index to a byte offset. Negative indices are
// returned unchanged so Clamp can report them; indices past the end map
// past the end.
func charToByteOffset(text string, n int) int {
	if n <= 0 {
		return n
	}
	seen := 0
	for i := range text {
		if seen == n {
			return i
		}
		seen++
	}
	return len(text) + (n - seen)
}

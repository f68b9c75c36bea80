package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"concept-visualizer-be/internal/constant"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/chunker"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/llm"
)

// ErrFormatting is returned alongside the plain-paragraph fallback when a
// chunk could not be formatted.
var ErrFormatting = errors.New("chunk formatting failed")

var (
	htmlSpanPattern   = regexp.MustCompile(`<[\s\S]*>`)
	codeFencePattern  = regexp.MustCompile("```html\\s+|```\\s*$")
	markerPattern     = regexp.MustCompile(`#END_INPUT_TEXT|#INPUT_TEXT|#END_CONCEPTS_TO_HIGHLIGHT|#CONCEPTS_TO_HIGHLIGHT`)
	preamblePattern   = regexp.MustCompile(`(?i)^(here'?s|here is|the formatted|formatted) (html|content|text)[:\s]*`)
	requirementsBlock = regexp.MustCompile(`Requirements:[\s\S]*?(-|•)[\s\S]*?\n\n`)
)

type promptConcept struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// RelevantConcepts keeps the concepts whose exact text occurs in the chunk.
func RelevantConcepts(chunk chunker.Chunk, concepts []concept.IndexedConcept) []concept.IndexedConcept {
	relevant := make([]concept.IndexedConcept, 0, len(concepts))
	for _, c := range concepts {
		if c.Text != "" && strings.Contains(chunk.Text, c.Text) {
			relevant = append(relevant, c)
		}
	}
	return relevant
}

// BuildPrompt renders the formatting instructions for one chunk.
func BuildPrompt(chunk chunker.Chunk, relevant []concept.IndexedConcept) (string, error) {
	var sb strings.Builder
	sb.WriteString(constant.FormatInputStartMarker + "\n")
	sb.WriteString(chunk.Text + "\n")
	sb.WriteString(constant.FormatInputEndMarker + "\n\n")

	if len(relevant) > 0 {
		payload := make([]promptConcept, len(relevant))
		for i, c := range relevant {
			payload[i] = promptConcept{Index: c.Index, Title: c.Title, Description: c.Description, Text: c.Text}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal concepts: %w", err)
		}
		sb.WriteString(constant.FormatConceptsStartMarker + "\n")
		sb.Write(raw)
		sb.WriteString("\n" + constant.FormatConceptsEndMarker + "\n\n")
	}

	sb.WriteString(constant.FormatInstructionsV1)
	if len(relevant) > 0 {
		sb.WriteString(constant.FormatConceptInstructionsV1)
	}
	sb.WriteString(constant.FormatOutputRulesV1)
	return sb.String(), nil
}

// CleanResponse strips everything around the HTML a model returned. It
// reports false when the response holds no tags at all.
func CleanResponse(response string) (string, bool) {
	out := htmlSpanPattern.FindString(response)
	if out == "" {
		return "", false
	}
	out = codeFencePattern.ReplaceAllString(out, "")
	out = markerPattern.ReplaceAllString(out, "")
	out = preamblePattern.ReplaceAllString(out, "")
	out = requirementsBlock.ReplaceAllString(out, "")
	return strings.TrimSpace(out), true
}

// Fallback is the output for a chunk that could not be formatted.
func Fallback(chunk chunker.Chunk) string {
	return "<p>" + html.EscapeString(chunk.Text) + "</p>"
}

type ChunkFormatter struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewChunkFormatter(provider llm.LLMProvider, log logger.ILogger) *ChunkFormatter {
	return &ChunkFormatter{provider: provider, logger: log}
}

// Format turns one chunk into annotated HTML. It never returns an empty
// string: on failure the escaped chunk text comes back in a <p> together
// with an error wrapping ErrFormatting.
func (f *ChunkFormatter) Format(ctx context.Context, chunk chunker.Chunk, concepts []concept.IndexedConcept) (string, error) {
	relevant := RelevantConcepts(chunk, concepts)
	f.logger.Debug("ChunkFormatter", "Formatting chunk", map[string]interface{}{
		"start_offset": chunk.StartOffset,
		"end_offset":   chunk.EndOffset,
		"rescue":       chunk.Rescue,
		"concepts":     len(relevant),
	})

	prompt, err := BuildPrompt(chunk, relevant)
	if err != nil {
		return Fallback(chunk), fmt.Errorf("%w: %w", ErrFormatting, err)
	}

	response, err := f.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return Fallback(chunk), fmt.Errorf("%w: %w", ErrFormatting, err)
	}

	cleaned, ok := CleanResponse(response)
	if !ok {
		return Fallback(chunk), fmt.Errorf("%w: response contains no HTML", ErrFormatting)
	}

	return RepairSpans(cleaned, relevant), nil
}

package concept

import (
	"context"
	"errors"
	"testing"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (s *stubProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestParseExtraction(t *testing.T) {
	text := "Photosynthesis converts light into energy. Respiration releases that energy."

	t.Run("json wrapped in prose", func(t *testing.T) {
		response := "Here you go:\n```json\n[" +
			`{"title":"Photosynthesis","description":"Plants make sugar.","startOffset":0,"endOffset":42},` +
			`{"title":"Respiration","description":"Cells burn sugar.","startOffset":43,"endOffset":76}` +
			"]\n```"
		got, err := ParseExtraction(text, response)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Photosynthesis converts light into energy.", got[0].Text(text))
		assert.Equal(t, "Respiration releases that energy.", got[1].Text(text))
	})

	t.Run("malformed entries are skipped", func(t *testing.T) {
		response := `[{"title":"ok","description":"d","startOffset":0,"endOffset":14},{"title":3,"description":"d","startOffset":0,"endOffset":1}]`
		got, err := ParseExtraction(text, response)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ok", got[0].Title)
	})

	t.Run("character offsets become byte offsets", func(t *testing.T) {
		s := "Café au lait"
		got, err := ParseExtraction(s, `[{"title":"lait","description":"milk","startOffset":8,"endOffset":12}]`)
		require.NoError(t, err)
		assert.Equal(t, "lait", got[0].Text(s))
	})

	failures := []struct {
		name     string
		response string
	}{
		{name: "no array", response: "I could not find any concepts."},
		{name: "empty array", response: "[]"},
		{name: "broken json", response: `[{"title": ]`},
		{name: "only malformed entries", response: `[{"title":"x"}]`},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction(text, tt.response)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}

func TestLLMExtractor_Extract(t *testing.T) {
	text := "Caching reduces latency."

	t.Run("prompt carries the text", func(t *testing.T) {
		provider := &stubProvider{response: `[{"title":"Caching","description":"d","startOffset":0,"endOffset":7}]`}
		extractor := NewLLMExtractor(provider, logger.NewNopLogger())

		got, err := extractor.Extract(context.Background(), text)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Len(t, provider.prompts, 1)
		assert.Contains(t, provider.prompts[0], text)
	})

	t.Run("provider failure is an extraction error", func(t *testing.T) {
		provider := &stubProvider{err: errors.New("quota exceeded")}
		extractor := NewLLMExtractor(provider, logger.NewNopLogger())

		_, err := extractor.Extract(context.Background(), text)
		assert.ErrorIs(t, err, ErrExtraction)
		assert.ErrorContains(t, err, "quota exceeded")
	})
}

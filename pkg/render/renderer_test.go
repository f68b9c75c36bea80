package render

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
	history  []llm.Message
	prompt   string
}

func (s *stubProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.history = history
	return s.response, s.err
}

func (s *stubProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestExtractSVG(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantOK   bool
	}{
		{
			name:     "bare",
			response: `<svg><rect/></svg>`,
			want:     `<svg><rect/></svg>`,
			wantOK:   true,
		},
		{
			name:     "fenced with chatter",
			response: "Sure!\n```svg\n<svg viewBox=\"0 0 10 10\"><g><svg/></g></svg>\n```\nEnjoy.",
			want:     `<svg viewBox="0 0 10 10"><g><svg/></g></svg>`,
			wantOK:   true,
		},
		{
			name:     "no closing tag",
			response: `<svg><rect/>`,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSVG(tt.response)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFixed(t *testing.T) {
	got := NormalizeFixed(`<svg width="100" viewBox="0 0 1 1" class="x"><circle r="2"/></svg>`)
	assert.Equal(t, fixedOpenTag+`<circle r="2"/></svg>`, got)
}

func TestNormalizeResponsive(t *testing.T) {
	got := NormalizeResponsive(`<svg width="300" height="200" viewBox="0 0 3 2" class="diagram"><line stroke-width="2"/></svg>`)
	assert.Equal(t,
		`<svg width="100%" height="100%" viewBox="0 0 1200 900" xmlns="http://www.w3.org/2000/svg" class="diagram"><line stroke-width="2"/></svg>`,
		got,
	)

	got = NormalizeResponsive(`<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	assert.Equal(t, `<svg width="100%" height="100%" viewBox="0 0 1200 900" xmlns="http://www.w3.org/2000/svg"><g/></svg>`, got)
}

func TestLLMRenderer_Render(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("fixed layout", func(t *testing.T) {
		provider := &stubProvider{response: "Here you go: <svg><text>Cache</text></svg>"}
		svg, err := NewLLMRenderer(provider, LayoutFixed, log).Render(context.Background(), "Cache", "Keeps copies close.")
		require.NoError(t, err)
		assert.Equal(t, fixedOpenTag+"<text>Cache</text></svg>", svg)
		assert.Contains(t, provider.prompt, "Cache: Keeps copies close.")
	})

	t.Run("responsive layout uses a system prompt", func(t *testing.T) {
		provider := &stubProvider{response: "<svg><g/></svg>"}
		svg, err := NewLLMRenderer(provider, LayoutResponsive, log).Render(context.Background(), "Queue", "FIFO buffer.")
		require.NoError(t, err)
		assert.Contains(t, svg, `viewBox="0 0 1200 900"`)
		require.Len(t, provider.history, 2)
		assert.Equal(t, llm.RoleSystem, provider.history[0].Role)
		assert.Contains(t, provider.history[1].Content, "Queue: FIFO buffer.")
	})

	t.Run("no svg", func(t *testing.T) {
		provider := &stubProvider{response: "I cannot draw that."}
		_, err := NewLLMRenderer(provider, LayoutFixed, log).Render(context.Background(), "X", "Y")
		assert.ErrorIs(t, err, ErrRender)
	})

	t.Run("collaborator error", func(t *testing.T) {
		provider := &stubProvider{err: errors.New("quota exceeded")}
		_, err := NewLLMRenderer(provider, LayoutFixed, log).Render(context.Background(), "X", "Y")
		assert.ErrorIs(t, err, ErrRender)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

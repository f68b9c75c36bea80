package chatbot

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
	prompt   string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (s *stubProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{
			name: "inline markup",
			in:   "**Bold** and *it* with `x`",
			want: []string{`<p class="mb-3"><strong>Bold</strong> and <em>it</em> with <code>x</code></p>`},
		},
		{
			name:    "bullet list after text",
			in:      "Intro line\n* one\n* two *emph*",
			want:    []string{`<p class="mb-3">Intro line</p>`, "<ul>", "<li>one</li>", "<li>two <em>emph</em></li>", "</ul>"},
			notWant: []string{`<li><p`},
		},
		{
			name: "paragraphs and line breaks",
			in:   "First para.\n\nSecond\nline",
			want: []string{`<p class="mb-3">First para.</p>`, `<p class="mb-3">Second<br>`},
		},
		{
			name:    "html block is escaped",
			in:      "<script>x</script>",
			want:    []string{`&lt;script&gt;x&lt;/script&gt;`},
			notWant: []string{"<script>"},
		},
		{
			name:    "inline html is escaped",
			in:      "Use <b>bold</b> tags",
			want:    []string{`&lt;b&gt;bold&lt;/b&gt;`},
			notWant: []string{"<b>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToHTML(tt.in)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, got, w)
			}
		})
	}

	assert.Equal(t, "", MarkdownToHTML("  \n "))
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))

	got := FormatHistory([]*ChatHistory{
		{Chat: "What is a cache?", Role: ChatMessageRoleUser},
		{Chat: "A fast store.", Role: ChatMessageRoleModel},
	})
	assert.Equal(t, "\nPREVIOUS CONVERSATION:\nUSER: What is a cache?\nASSISTANT: A fast store.\n", got)
}

func TestLLMAssistant_Answer(t *testing.T) {
	provider := &stubProvider{response: "A **cache** keeps copies."}
	assistant := NewLLMAssistant(provider, logger.NewNopLogger())

	answer, err := assistant.Answer(context.Background(), "Why cache?", "Caches reduce latency.", []*ChatHistory{
		{Chat: "Hi", Role: ChatMessageRoleUser},
	})
	require.NoError(t, err)
	assert.Equal(t, `<p class="mb-3">A <strong>cache</strong> keeps copies.</p>`, answer)
	assert.Contains(t, provider.prompt, "PREVIOUS CONVERSATION:\nUSER: Hi")
	assert.Contains(t, provider.prompt, "CONTEXT:\nCaches reduce latency.")
	assert.Contains(t, provider.prompt, "QUESTION:\nWhy cache?")

	provider.err = errors.New("timeout")
	_, err = assistant.Answer(context.Background(), "Why?", "", nil)
	assert.Error(t, err)
}

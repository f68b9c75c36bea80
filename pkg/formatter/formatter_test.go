package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/chunker"
	"concept-visualizer-be/pkg/concept"
	"concept-visualizer-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	fn    func(prompt string) (string, error)
	calls atomic.Int32
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (s *scriptedProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.calls.Add(1)
	return s.fn(prompt)
}

func marker(index int, title, text string) string {
	return fmt.Sprintf(`<span class="highlighted-concept" data-concept-index="%d" data-concept-title="%s">%s</span>`, index, title, text)
}

func indexed(text string, titles ...string) []concept.IndexedConcept {
	raw := make([]concept.Concept, 0, len(titles))
	for _, title := range titles {
		start := strings.Index(text, title)
		raw = append(raw, concept.Concept{Title: title, StartOffset: start, EndOffset: start + len(title)})
	}
	return concept.Index(text, raw)
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantOK   bool
	}{
		{
			name:     "plain html",
			response: "<p>Hello</p>",
			want:     "<p>Hello</p>",
			wantOK:   true,
		},
		{
			name:     "fenced with preamble",
			response: "Here's the formatted HTML:\n```html\n<p>Hello <strong>world</strong></p>\n```",
			want:     "<p>Hello <strong>world</strong></p>",
			wantOK:   true,
		},
		{
			name:     "echoed markers",
			response: "<div>#INPUT_TEXT<p>Hi</p>#END_INPUT_TEXT</div>",
			want:     "<div><p>Hi</p></div>",
			wantOK:   true,
		},
		{
			name:     "no tags",
			response: "Sorry, I cannot help with that.",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanResponse(tt.response)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("CleanResponse = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairSpans(t *testing.T) {
	t.Run("fragments of one concept are merged", func(t *testing.T) {
		concepts := []concept.IndexedConcept{{
			Concept: concept.Concept{Title: "Neural network"},
			Index:   0,
			Text:    "neural network",
		}}
		in := "<p>The " + marker(0, "NN", "neural") + " " + marker(0, "NN", "network") + " learns.</p>"

		got := RepairSpans(in, concepts)
		assert.Equal(t, "<p>The "+marker(0, "Neural network", "neural network")+" learns.</p>", got)
	})

	t.Run("different indices are not merged", func(t *testing.T) {
		text := "alpha beta"
		concepts := indexed(text, "alpha", "beta")
		in := "<p>" + marker(0, "alpha", "alpha") + " " + marker(1, "beta", "beta") + "</p>"

		got := RepairSpans(in, concepts)
		assert.Equal(t, in, got)
	})

	t.Run("repeated text keeps only the first marker", func(t *testing.T) {
		concepts := indexed("cache", "cache")
		in := "<p>" + marker(0, "cache", "cache") + " and then " + marker(0, "cache", "cache") + "</p>"

		got := RepairSpans(in, concepts)
		assert.Equal(t, 1, strings.Count(got, MarkerClass))
		assert.Equal(t, "<p>"+marker(0, "cache", "cache")+" and then cache</p>", got)
	})

	t.Run("partial word and unknown index are unwrapped", func(t *testing.T) {
		concepts := indexed("neural", "neural")
		in := "<p>" + marker(0, "neural", "neur") + "al and " + marker(9, "ghost", "ghost") + "</p>"

		got := RepairSpans(in, concepts)
		assert.Equal(t, "<p>neural and ghost</p>", got)
	})

	t.Run("markup without markers is untouched", func(t *testing.T) {
		in := "<h2>Title</h2><ul><li>one</li><li>two</li></ul>"
		assert.Equal(t, in, RepairSpans(in, nil))
	})
}

func TestBuildPrompt(t *testing.T) {
	chunk := chunker.Chunk{Text: "Caching reduces latency."}
	relevant := []concept.IndexedConcept{{
		Concept: concept.Concept{Title: "Caching", Description: "Keeping copies close."},
		Index:   3,
		Text:    "Caching",
	}}

	prompt, err := BuildPrompt(chunk, relevant)
	require.NoError(t, err)
	assert.Contains(t, prompt, "#INPUT_TEXT\nCaching reduces latency.\n#END_INPUT_TEXT")
	assert.Contains(t, prompt, "#CONCEPTS_TO_HIGHLIGHT")
	assert.Contains(t, prompt, `"index":3`)
	assert.Contains(t, prompt, "data-concept-index")

	bare, err := BuildPrompt(chunk, nil)
	require.NoError(t, err)
	assert.NotContains(t, bare, "#CONCEPTS_TO_HIGHLIGHT")
	assert.NotContains(t, bare, "data-concept-index")
}

func TestChunkFormatter_Format(t *testing.T) {
	log := logger.NewNopLogger()
	chunk := chunker.Chunk{Text: "a < b & c"}

	t.Run("success strips wrapper text", func(t *testing.T) {
		provider := &scriptedProvider{fn: func(string) (string, error) {
			return "Here's the formatted HTML:\n```html\n<p>a &lt; b &amp; c</p>\n```", nil
		}}
		got, err := NewChunkFormatter(provider, log).Format(context.Background(), chunk, nil)
		require.NoError(t, err)
		assert.Equal(t, "<p>a &lt; b &amp; c</p>", got)
	})

	t.Run("collaborator error falls back to escaped paragraph", func(t *testing.T) {
		provider := &scriptedProvider{fn: func(string) (string, error) {
			return "", errors.New("rate limited")
		}}
		got, err := NewChunkFormatter(provider, log).Format(context.Background(), chunk, nil)
		assert.ErrorIs(t, err, ErrFormatting)
		assert.Equal(t, "<p>a &lt; b &amp; c</p>", got)
	})

	t.Run("response without tags falls back", func(t *testing.T) {
		provider := &scriptedProvider{fn: func(string) (string, error) {
			return "I refuse.", nil
		}}
		got, err := NewChunkFormatter(provider, log).Format(context.Background(), chunk, nil)
		assert.ErrorIs(t, err, ErrFormatting)
		assert.Equal(t, Fallback(chunk), got)
	})
}

func TestOrchestrator_TwoSentenceDocument(t *testing.T) {
	text := "Photosynthesis converts light into energy. Respiration releases that energy."
	concepts := indexed(text,
		"Photosynthesis converts light into energy.",
		"Respiration releases that energy.",
	)
	provider := &scriptedProvider{fn: func(string) (string, error) {
		return "<p>" +
			marker(0, "a", "Photosynthesis converts light into energy.") + " " +
			marker(1, "b", "Respiration releases that energy.") +
			"</p>", nil
	}}

	o := NewOrchestrator(NewChunkFormatter(provider, logger.NewNopLogger()), chunker.DefaultOptions(), 2, logger.NewNopLogger())
	got, err := o.Format(context.Background(), text, concepts)
	require.NoError(t, err)

	assert.Equal(t, int32(1), provider.calls.Load())
	assert.True(t, strings.HasPrefix(got, HighlightStyles+"<div>"))
	assert.Equal(t, 1, strings.Count(got, "<style>"))
	first := strings.Index(got, `data-concept-index="0"`)
	second := strings.Index(got, `data-concept-index="1"`)
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

type fakeFormatter struct {
	delay func(chunker.Chunk) time.Duration
	fail  func(chunker.Chunk) bool
}

func (f fakeFormatter) Format(_ context.Context, chunk chunker.Chunk, _ []concept.IndexedConcept) (string, error) {
	time.Sleep(f.delay(chunk))
	if f.fail != nil && f.fail(chunk) {
		return Fallback(chunk), ErrFormatting
	}
	return "<p>" + chunk.Text[:len("Paragraph X")] + "</p>", nil
}

func sevenParagraphs() string {
	parts := make([]string, 7)
	for i := range parts {
		parts[i] = "Paragraph " + string(rune('A'+i)) + " has some words."
	}
	return strings.Join(parts, "\n\n")
}

func TestOrchestrator_PreservesChunkOrder(t *testing.T) {
	text := sevenParagraphs()
	formatter := fakeFormatter{delay: func(c chunker.Chunk) time.Duration {
		// earlier chunks finish last
		return time.Duration(len(text)-c.StartOffset) * 100 * time.Microsecond
	}}

	got, err := NewOrchestrator(formatter, chunker.DefaultOptions(), 3, logger.NewNopLogger()).
		Format(context.Background(), text, nil)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>Paragraph A</p><p>Paragraph D</p><p>Paragraph G</p></div>", got)
}

func TestOrchestrator_FailedChunkDegradesAlone(t *testing.T) {
	text := sevenParagraphs()
	formatter := fakeFormatter{
		delay: func(chunker.Chunk) time.Duration { return 0 },
		fail:  func(c chunker.Chunk) bool { return strings.HasPrefix(c.Text, "Paragraph D") },
	}

	got, err := NewOrchestrator(formatter, chunker.DefaultOptions(), 1, logger.NewNopLogger()).
		Format(context.Background(), text, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "<p>Paragraph A</p>")
	assert.Contains(t, got, "<p>Paragraph D has some words.\n\nParagraph E has some words.\n\nParagraph F has some words.</p>")
	assert.Contains(t, got, "<p>Paragraph G</p>")
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	formatter := fakeFormatter{delay: func(chunker.Chunk) time.Duration { return 0 }}
	_, err := NewOrchestrator(formatter, chunker.DefaultOptions(), 1, logger.NewNopLogger()).
		Format(ctx, sevenParagraphs(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// highlighter plays a formatting model that wraps the first occurrence of
// every concept found in the chunk it was given.
func highlighter(concepts []concept.IndexedConcept) *scriptedProvider {
	return &scriptedProvider{fn: func(prompt string) (string, error) {
		start := strings.Index(prompt, "#INPUT_TEXT\n") + len("#INPUT_TEXT\n")
		end := strings.Index(prompt, "\n#END_INPUT_TEXT")
		out := prompt[start:end]
		for _, c := range concepts {
			out = strings.Replace(out, c.Text, marker(c.Index, c.Title, c.Text), 1)
		}
		return "<p>" + out + "</p>", nil
	}}
}

func TestOrchestrator_ConceptAcrossCRLFParagraphs(t *testing.T) {
	text := "Intro line.\r\n\r\nGradient descent\r\n\r\nupdates weights."
	start := strings.Index(text, "Gradient")
	concepts := concept.Index(text, []concept.Concept{
		{Title: "Gradient descent", StartOffset: start, EndOffset: len(text)},
	})

	chunks := chunker.Split(text, concepts, chunker.DefaultOptions())
	require.Len(t, chunks, 1)
	require.Len(t, RelevantConcepts(chunks[0], concepts), 1)

	provider := highlighter(concepts)
	got, err := NewOrchestrator(NewChunkFormatter(provider, logger.NewNopLogger()), chunker.DefaultOptions(), 2, logger.NewNopLogger()).
		Format(context.Background(), text, concepts)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(got, `data-concept-index="0"`))
}

func TestOrchestrator_RescueChunkAppendedOnce(t *testing.T) {
	parts := make([]string, 10)
	for i := range parts {
		parts[i] = "Paragraph " + string(rune('A'+i)) + " has some words."
	}
	text := strings.Join(parts, "\n\n")

	// the first concept runs from the second to the eighth paragraph, too
	// long for any normal chunk
	longStart := strings.Index(text, "Paragraph B")
	longEnd := strings.Index(text, "Paragraph H") + len(parts[7])
	shortStart := strings.Index(text, "Paragraph J")
	concepts := concept.Index(text, []concept.Concept{
		{Title: "Long", StartOffset: longStart, EndOffset: longEnd},
		{Title: "Short", StartOffset: shortStart, EndOffset: shortStart + len(parts[9])},
	})

	chunks := chunker.Split(text, concepts, chunker.DefaultOptions())
	require.True(t, chunks[len(chunks)-1].Rescue)
	for _, ch := range chunks[:len(chunks)-1] {
		require.False(t, ch.Rescue)
	}

	got, err := NewOrchestrator(NewChunkFormatter(highlighter(concepts), logger.NewNopLogger()), chunker.DefaultOptions(), 4, logger.NewNopLogger()).
		Format(context.Background(), text, concepts)
	require.NoError(t, err)

	// the rescue window repeats the source, but each concept keeps one marker
	assert.Equal(t, 1, strings.Count(got, `data-concept-index="0"`))
	assert.Equal(t, 1, strings.Count(got, `data-concept-index="1"`))
	assert.Equal(t, 2, strings.Count(got, "Paragraph C has some words."))

	// the short concept is highlighted in its normal chunk, the long one only
	// in the rescue output that follows every normal chunk
	short := strings.Index(got, `data-concept-index="1"`)
	long := strings.Index(got, `data-concept-index="0"`)
	assert.Less(t, short, long)
	assert.Less(t, strings.Index(got, "Paragraph J has some words."), long)
	assert.Greater(t, strings.LastIndex(got, "Paragraph J has some words."), long)
}

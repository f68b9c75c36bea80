package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"concept-visualizer-be/pkg/concept"
)

var paragraphBreak = regexp.MustCompile(`(?:\r?\n){2,}`)

// Chunk is a contiguous slice of the source text sent to the formatter in
// one call: Text == source[StartOffset:EndOffset], separators included.
// Rescue chunks are a window of the source around a concept no normal
// chunk fully contains.
type Chunk struct {
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Rescue      bool   `json:"rescue"`
}

type Options struct {
	// TargetParagraphs is how many paragraphs a chunk normally holds.
	TargetParagraphs int
	// MaxParagraphs caps how far a chunk may grow to avoid splitting a concept.
	MaxParagraphs int
	// RescueContext is the number of bytes kept on each side of a rescued concept.
	RescueContext int
}

func DefaultOptions() Options {
	return Options{
		TargetParagraphs: 3,
		MaxParagraphs:    5,
		RescueContext:    300,
	}
}

type paragraph struct {
	text       string
	start, end int
}

func splitParagraphs(text string) []paragraph {
	var paragraphs []paragraph
	last := 0
	add := func(start, end int) {
		if strings.TrimSpace(text[start:end]) == "" {
			return
		}
		paragraphs = append(paragraphs, paragraph{text: text[start:end], start: start, end: end})
	}
	for _, loc := range paragraphBreak.FindAllStringIndex(text, -1) {
		add(last, loc[0])
		last = loc[1]
	}
	add(last, len(text))
	return paragraphs
}

// Split groups paragraphs into chunks of opts.TargetParagraphs. A chunk is
// held open while a concept not yet placed in any chunk straddles its end,
// up to opts.MaxParagraphs. The last paragraph always closes a chunk. Every
// concept still not fully inside a chunk afterwards gets a rescue chunk,
// appended after the normal ones.
func Split(text string, concepts []concept.IndexedConcept, opts Options) []Chunk {
	paragraphs := splitParagraphs(text)
	assigned := make([]bool, len(concepts))
	chunks := make([]Chunk, 0, len(paragraphs)/max(opts.TargetParagraphs, 1)+1)

	var (
		held       int
		chunkStart int
	)
	for i, p := range paragraphs {
		if held == 0 {
			chunkStart = p.start
		}
		held++

		isLast := i == len(paragraphs)-1
		if held < opts.TargetParagraphs && !isLast {
			continue
		}
		if !isLast && held < opts.MaxParagraphs && straddles(concepts, assigned, p.end) {
			continue
		}

		chunks = append(chunks, Chunk{
			Text:        text[chunkStart:p.end],
			StartOffset: chunkStart,
			EndOffset:   p.end,
		})
		for k, c := range concepts {
			if c.StartOffset >= chunkStart && c.EndOffset <= p.end {
				assigned[k] = true
			}
		}
		held = 0
	}

	for k, c := range concepts {
		if assigned[k] {
			continue
		}
		start := max(0, c.StartOffset-opts.RescueContext)
		end := min(len(text), c.EndOffset+opts.RescueContext)
		for start > 0 && !utf8.RuneStart(text[start]) {
			start--
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		chunks = append(chunks, Chunk{
			Text:        text[start:end],
			StartOffset: start,
			EndOffset:   end,
			Rescue:      true,
		})
		assigned[k] = true
	}

	return chunks
}

func straddles(concepts []concept.IndexedConcept, assigned []bool, boundary int) bool {
	for k, c := range concepts {
		if !assigned[k] && c.StartOffset <= boundary && c.EndOffset > boundary {
			return true
		}
	}
	return false
}

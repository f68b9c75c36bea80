package concept

import (
	"errors"
	"sort"
	"unicode/utf8"
)

var (
	// ErrExtraction is returned when the extraction collaborator yields no
	// parseable, non-empty concept list.
	ErrExtraction = errors.New("concept extraction failed")

	// ErrOffsetIntegrity marks a concept whose range does not fit the source
	// text. It is logged and the concept dropped, never surfaced to callers.
	ErrOffsetIntegrity = errors.New("concept offsets out of range")
)

// Concept is a titled, described range [StartOffset, EndOffset) into the
// source text. Offsets are byte offsets.
type Concept struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Text returns the verbatim source slice covered by c.
func (c Concept) Text(source string) string {
	return source[c.StartOffset:c.EndOffset]
}

// IndexedConcept is a refined concept with its final position in the
// offset-sorted list. Index is the join key between highlight markers,
// visualization results and the active-concept cursor.
type IndexedConcept struct {
	Concept
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SortByOffset orders concepts by start offset in place. Stable, so equal
// starts keep their input order.
func SortByOffset(concepts []Concept) {
	sort.SliceStable(concepts, func(i, j int) bool {
		return concepts[i].StartOffset < concepts[j].StartOffset
	})
}

// Index sorts a copy of concepts by start offset and assigns each its index.
// Call it once per visualization; indices must never be recomputed later.
func Index(source string, concepts []Concept) []IndexedConcept {
	sorted := make([]Concept, len(concepts))
	copy(sorted, concepts)
	SortByOffset(sorted)

	indexed := make([]IndexedConcept, len(sorted))
	for i, c := range sorted {
		indexed[i] = IndexedConcept{
			Concept: c,
			Index:   i,
			Text:    c.Text(source),
		}
	}
	return indexed
}

// Clamp forces c into [0, len(source)] and onto rune boundaries. It fails
// with ErrOffsetIntegrity when nothing of the range survives.
func Clamp(source string, c Concept) (Concept, error) {
	if c.StartOffset < 0 {
		c.StartOffset = 0
	}
	if c.EndOffset > len(source) {
		c.EndOffset = len(source)
	}
	for c.StartOffset > 0 && c.StartOffset < len(source) && !utf8.RuneStart(source[c.StartOffset]) {
		c.StartOffset--
	}
	for c.EndOffset < len(source) && c.EndOffset > 0 && !utf8.RuneStart(source[c.EndOffset]) {
		c.EndOffset++
	}
	if c.StartOffset >= c.EndOffset {
		return c, ErrOffsetIntegrity
	}
	return c, nil
}

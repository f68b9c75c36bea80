package concept

import (
	"concept-visualizer-be/internal/pkg/logger"
)

// Refine runs raw extractor output through clamping, word-boundary
// snapping, overlap resolution and deduplication, and returns the survivors
// sorted by start offset. Concepts whose range cannot be salvaged are
// logged and dropped.
func Refine(source string, raw []Concept, log logger.ILogger) []Concept {
	valid := make([]Concept, 0, len(raw))
	for _, c := range raw {
		clamped, err := Clamp(source, c)
		if err != nil {
			log.Warn("ConceptRefiner", "Dropping concept with invalid range", map[string]interface{}{
				"title":        c.Title,
				"start_offset": c.StartOffset,
				"end_offset":   c.EndOffset,
				"text_length":  len(source),
			})
			continue
		}
		if clamped != c {
			log.Debug("ConceptRefiner", "Clamped concept range", map[string]interface{}{
				"title": c.Title,
				"from":  []int{c.StartOffset, c.EndOffset},
				"to":    []int{clamped.StartOffset, clamped.EndOffset},
			})
		}
		valid = append(valid, SnapToWordBoundaries(source, clamped))
	}

	resolved := ResolveOverlaps(source, valid)
	unique := Deduplicate(source, resolved)
	SortByOffset(unique)

	log.Info("ConceptRefiner", "Concepts refined", map[string]interface{}{
		"raw":      len(raw),
		"valid":    len(valid),
		"resolved": len(resolved),
		"final":    len(unique),
	})
	return unique
}

package concept

import "strings"

func isBreakByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v', '.', ',', ';', '!', '?':
		return true
	}
	return false
}

// ResolveOverlaps returns the concepts sorted by start offset with no two
// ranges intersecting.
//
// For a concept a and a later-starting b with a.End > b.Start:
//   - a's text contains b's text: b is dropped.
//   - b's text contains a's text: a is dropped.
//   - otherwise a is cut back to just after the last whitespace or
//     punctuation before b.Start, or to b.Start when there is none.
func ResolveOverlaps(source string, concepts []Concept) []Concept {
	sorted := make([]Concept, len(concepts))
	copy(sorted, concepts)
	SortByOffset(sorted)

	dropped := make([]bool, len(sorted))
	for i := range sorted {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if dropped[j] {
				continue
			}
			a, b := &sorted[i], &sorted[j]
			if a.EndOffset <= b.StartOffset {
				continue
			}

			aText, bText := a.Text(source), b.Text(source)
			if strings.Contains(aText, bText) {
				dropped[j] = true
				continue
			}
			if strings.Contains(bText, aText) {
				dropped[i] = true
				break
			}

			breakPoint := b.StartOffset
			for k := b.StartOffset - 1; k > a.StartOffset; k-- {
				if isBreakByte(source[k]) {
					breakPoint = k + 1
					break
				}
			}
			a.EndOffset = breakPoint
		}
	}

	resolved := make([]Concept, 0, len(sorted))
	for i, c := range sorted {
		if !dropped[i] {
			resolved = append(resolved, c)
		}
	}
	return resolved
}

package concept

// Deduplicate keeps one concept per distinct verbatim text: the one with the
// longer description, the first seen on a tie. The result is in first-seen
// order, which is not necessarily offset order.
func Deduplicate(source string, concepts []Concept) []Concept {
	byText := make(map[string]int, len(concepts))
	unique := make([]Concept, 0, len(concepts))

	for _, c := range concepts {
		text := c.Text(source)
		pos, seen := byText[text]
		if !seen {
			byText[text] = len(unique)
			unique = append(unique, c)
			continue
		}
		if len(c.Description) > len(unique[pos].Description) {
			unique[pos] = c
		}
	}
	return unique
}

package concept

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// SnapToWordBoundaries widens c so that neither end cuts through a word.
// The start moves left while the byte before it is alphanumeric, the end
// moves right while the byte at it is alphanumeric. c must already be
// within the bounds of source (see Clamp).
func SnapToWordBoundaries(source string, c Concept) Concept {
	for c.StartOffset > 0 && isWordByte(source[c.StartOffset-1]) {
		c.StartOffset--
	}
	for c.EndOffset < len(source) && isWordByte(source[c.EndOffset]) {
		c.EndOffset++
	}
	return c
}

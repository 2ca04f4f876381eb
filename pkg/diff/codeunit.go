package diff

import "unicode/utf16"

// Columns are reported in a 16-bit code-unit space, matching common
// editor conventions: a code point above U+FFFF counts as two units
// (a UTF-16 surrogate pair), exactly like JavaScript string indexing.
// The engine's native input is UTF-8 bytes, so every column-producing
// path converts through these helpers rather than counting bytes or
// runes directly.

// encodeCodeUnits converts a UTF-8 string into its UTF-16 code-unit
// sequence. Each element of the result is what the rest of the engine
// treats as one "character" position.
func encodeCodeUnits(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// decodeCodeUnits is the inverse of encodeCodeUnits.
func decodeCodeUnits(units []uint16) string {
	return string(utf16.Decode(units))
}

// codeUnitLen is the number of UTF-16 code units s decodes to.
func codeUnitLen(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// isWhitespace reports whether cp belongs to the fixed whitespace set
// used throughout the engine for trimming and classification. This set
// intentionally does not delegate to unicode.IsSpace: it is a fixed
// list matching common editor whitespace handling exactly.
func isWhitespace(cp uint16) bool {
	switch {
	case cp >= 0x0009 && cp <= 0x000D:
		return true
	case cp == 0x0020:
		return true
	case cp == 0x00A0:
		return true
	case cp == 0x1680:
		return true
	case cp >= 0x2000 && cp <= 0x200A:
		return true
	case cp == 0x2028, cp == 0x2029:
		return true
	case cp == 0x202F:
		return true
	case cp == 0x205F:
		return true
	case cp == 0x3000:
		return true
	}
	return false
}

// countNonWhitespace returns the number of UTF-16 code units in units
// for which isWhitespace returns false.
func countNonWhitespace(units []uint16) int {
	n := 0
	for _, u := range units {
		if !isWhitespace(u) {
			n++
		}
	}
	return n
}

// trimWhitespaceUnits trims leading and trailing code units matched by
// isWhitespace, returning the trimmed slice and the number of leading
// units removed.
func trimWhitespaceUnits(units []uint16) (trimmed []uint16, leadingTrimmed int) {
	start := 0
	for start < len(units) && isWhitespace(units[start]) {
		start++
	}
	end := len(units)
	for end > start && isWhitespace(units[end-1]) {
		end--
	}
	return units[start:end], start
}

// indent counts leading ' ' or '\t' code units in units.
func indent(units []uint16) int {
	n := 0
	for _, u := range units {
		if u == ' ' || u == '\t' {
			n++
		} else {
			break
		}
	}
	return n
}

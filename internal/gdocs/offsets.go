package gdocs

// The Docs API addresses document content in UTF-16 code units, not
// bytes: every StartIndex/EndIndex in this package counts UTF-16 units.
// Callers holding Go string (byte) offsets must convert before building
// requests.

// UTF16Len returns the length of s in UTF-16 code units. Characters
// outside the Basic Multilingual Plane count as a surrogate pair.
func UTF16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n++
		if r > 0xFFFF {
			n++
		}
	}
	return n
}

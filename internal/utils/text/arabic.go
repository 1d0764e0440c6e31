package text

const (
	arabicBlockStart = 0x0600
	arabicBlockEnd   = 0x06FF
)

// HasArabic reports whether content has at least one rune in the Arabic block (U+0600..U+06FF).
// Supplement and presentation-form blocks are deliberately not matched.
func HasArabic(content string) bool {
	for _, r := range content {
		if r >= arabicBlockStart && r <= arabicBlockEnd {
			return true
		}
	}
	return false
}

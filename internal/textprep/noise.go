package textprep

import (
	"regexp"
	"strings"
)

// Noise patterns, applied in order. Removal is best-effort: malformed
// variants (e.g. "hxxp://") are left in place.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`http\S+|www\.\S+`), // URLs
	regexp.MustCompile(`\S+@\S+`),          // email addresses
	regexp.MustCompile(`@[\p{L}\p{N}_]+`),  // @mentions
	regexp.MustCompile(`#[\p{L}\p{N}_]+`),  // #hashtags
}

// asciiPunctuation matches Python's string.punctuation.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// RemoveNoise strips URLs, email addresses, mentions and hashtags.
func RemoveNoise(text string) string {
	for _, p := range noisePatterns {
		text = p.ReplaceAllString(text, "")
	}
	return text
}

// RemovePunctuation deletes ASCII punctuation characters.
func RemovePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
}

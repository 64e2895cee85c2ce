package handlers

import (
	"strings"
	"unicode"
)

// makePreview collapses a transcript into a single-line snippet of at most
// maxLen runes, cutting on a word boundary where possible.
func makePreview(text string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}

	cut := string(runes[:maxLen])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

// normalizeTags lowercases, trims and de-duplicates topic tags, keeping
// first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	normalized := []string{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}

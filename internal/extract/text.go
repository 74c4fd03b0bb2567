package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

const paragraphSep = "\n\n"

// normalizeSpace collapses every whitespace run to a single space and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// joinParagraphs normalizes each paragraph, drops empty ones and joins the
// rest with a single blank line.
func joinParagraphs(paragraphs []string) string {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = normalizeSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, paragraphSep)
}

// buildAbstract takes leading paragraphs of fullText while the running total
// stays under maxChars. If even the first paragraph does not fit, its first
// maxChars characters are used.
func buildAbstract(fullText string, maxParagraphs, maxChars int) string {
	if fullText == "" {
		return ""
	}
	paragraphs := strings.Split(fullText, paragraphSep)
	if maxParagraphs > 0 && len(paragraphs) > maxParagraphs {
		paragraphs = paragraphs[:maxParagraphs]
	}

	var b strings.Builder
	n := 0
	for i, p := range paragraphs {
		add := utf8.RuneCountInString(p)
		if i > 0 {
			add += len(paragraphSep)
		}
		if n+add >= maxChars {
			break
		}
		if i > 0 {
			b.WriteString(paragraphSep)
		}
		b.WriteString(p)
		n += add
	}

	if b.Len() == 0 {
		return types.Truncate(paragraphs[0], maxChars)
	}
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

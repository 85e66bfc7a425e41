// Package sanitizer turns rendered markup into the plain text embedded in
// analysis prompts.
package sanitizer

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// https anchors are dropped together with their label
	secureAnchor = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']https://[^"']*["'][^>]*>.*?</a\s*>`)
	bareURL      = regexp.MustCompile(`\s*https://\S*`)
	// ASCII, vertical tab, NEL and unicode separators, matching what
	// strings.TrimSpace treats as space
	whitespace = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

// maxPasses bounds Clean. Each pass is linear in the input and real input
// settles within three.
const maxPasses = 8

// Clean applies the sanitization passes until the text stops changing:
// https anchors (with their label) are removed, then bare https URLs, then
// every remaining tag is replaced by a space, and finally hyphens are dropped
// and whitespace is collapsed and trimmed.
//
// Repeating the passes keeps Clean idempotent when a later pass produces
// input an earlier pass would have removed, such as "htt-ps://" becoming
// "https://" once the hyphen is gone.
func Clean(raw string) string {
	text := raw
	for i := 0; i < maxPasses; i++ {
		next := clean(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func clean(text string) string {
	text = secureAnchor.ReplaceAllString(text, "")
	text = bareURL.ReplaceAllString(text, "")
	text = StripTags(text)
	text = strings.ReplaceAll(text, "-", "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// StripTags replaces every markup token (tags, comments, doctypes) with a
// single space and keeps text tokens byte for byte. Entities are not decoded.
// Contents of script, style, title, textarea and similar elements are
// tokenized as markup too, so one call removes every tag.
func StripTags(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or an unterminated tag at the end of input which is
			// dropped like any other tag
			return sb.String()
		case html.TextToken:
			sb.Write(z.Raw())
		case html.StartTagToken:
			z.NextIsNotRawText()
			sb.WriteByte(' ')
		default:
			sb.WriteByte(' ')
		}
	}
}

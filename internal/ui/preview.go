package ui

import (
	"strings"

	"golang.org/x/net/html"
)

// PreviewWords is the default length of a rendered source preview.
const PreviewWords = 40

// PlainPreview reduces a content preview to a single line of plain text.
// Markup is dropped (script and style bodies included), whitespace is
// collapsed and the result is cut to maxWords.
func PlainPreview(content string, maxWords int) string {
	text := extractText(content)
	text = cleanText(text)
	if maxWords > 0 {
		text = truncateWords(text, maxWords)
	}
	return text
}

// extractText tokenizes content as HTML and keeps only text nodes
func extractText(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return content
	}

	z := html.NewTokenizer(strings.NewReader(content))
	var text strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return text.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isSkipped(string(name)) {
				skip++
			}
			text.WriteString(" ")
		case html.EndTagToken:
			if name, _ := z.TagName(); isSkipped(string(name)) && skip > 0 {
				skip--
			}
			text.WriteString(" ")
		case html.SelfClosingTagToken:
			text.WriteString(" ")
		case html.TextToken:
			if skip == 0 {
				text.Write(z.Text())
			}
		}
	}
}

func isSkipped(tag string) bool {
	return tag == "script" || tag == "style"
}

// cleanText removes excessive whitespace and normalizes text
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncateWords truncates text to approximately N words
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	return strings.Join(words[:maxWords], " ") + "..."
}

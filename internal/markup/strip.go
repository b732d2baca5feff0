// Package markup removes HTML markup from setting values so they can be shown
// as plain labels in block lists.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Stripper turns rich-text setting values into plain text.
type Stripper interface {
	// StripHTML returns the text content of s with entities decoded.
	StripHTML(s string) string
	// StripTags removes tags from s and leaves the remaining text untouched.
	StripTags(s string) string
}

// HTML is the Stripper backed by the x/net/html tokenizer.
type HTML struct{}

var _ Stripper = HTML{}

func (HTML) StripHTML(s string) string {
	return walkText(s, func(z *html.Tokenizer) string { return string(z.Text()) })
}

func (HTML) StripTags(s string) string {
	return walkText(s, func(z *html.Tokenizer) string { return string(z.Raw()) })
}

// walkText feeds s through the tokenizer and concatenates every text token
// outside of script and style elements.
func walkText(s string, text func(z *html.Tokenizer) string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var (
		b       strings.Builder
		skipped int
	)
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail: keep what was collected.
			return b.String()
		case html.TextToken:
			if skipped == 0 {
				b.WriteString(text(z))
			}
		case html.StartTagToken:
			if isRawElement(z) {
				skipped++
			}
		case html.EndTagToken:
			if isRawElement(z) && skipped > 0 {
				skipped--
			}
		}
	}
}

func isRawElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of s with every tag removed and entities decoded.
// Content of script and style elements is dropped.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Text sanitizes user or CRM provided text: tags are stripped and runs of
// whitespace collapse to a single space.
func Text(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

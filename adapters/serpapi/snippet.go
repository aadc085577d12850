package serpapi

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// highlightTags are the emphasis tags search engines wrap matched terms in
var highlightTags = map[atom.Atom]bool{
	atom.B:      true,
	atom.Em:     true,
	atom.Strong: true,
	atom.I:      true,
}

// cleanSnippet removes bare highlight tags such as <b> and </em>. Every other
// byte, including stray '<', entities and repeated spaces, is kept as sent.
func cleanSnippet(s *string) *string {
	if s == nil || !strings.Contains(*s, "<") {
		return s
	}
	text := stripHighlightTags(*s)
	if text == *s {
		return s
	}
	return &text
}

func stripHighlightTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.IndexByte(s, '<')
		if open < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[open:], '>')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += open

		name := strings.TrimPrefix(s[open+1:end], "/")
		if highlightTags[atom.Lookup([]byte(strings.ToLower(name)))] {
			b.WriteString(s[:open])
		} else {
			b.WriteString(s[:open+1])
			end = open
		}
		s = s[end+1:]
	}
}

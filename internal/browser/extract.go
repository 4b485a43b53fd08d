package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// entryText flattens one timeline entry's markup into its visible text.
// Element boundaries collapse to single spaces so the substring rules
// downstream see each entry as one line, however the UI nests its spans.
func entryText(markup string) (string, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing entry markup: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			// Script and style text is never part of the visible entry.
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(sb.String()), " "), nil
}

package duckduckgo

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// parseResultsPage extracts result hits from the HTML results page. Each
// anchor with class result__a starts a new hit; a following result__snippet
// anchor supplies its abstract.
func parseResultsPage(r io.Reader) ([]resultHit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var hits []resultHit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				hits = append(hits, resultHit{
					Title: textContent(n),
					URL:   attr(n, "href"),
				})
			case hasClass(n, "result__snippet") && len(hits) > 0:
				hits[len(hits)-1].Abstract = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hits, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

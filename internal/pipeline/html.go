package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// skipTags are elements whose text never belongs to the article body.
var skipTags = map[string]bool{
	"script":     true,
	"style":      true,
	"noscript":   true,
	"iframe":     true,
	"nav":        true,
	"header":     true,
	"footer":     true,
	"aside":      true,
	"form":       true,
	"button":     true,
	"figcaption": true,
}

// blockTags are elements that end a run of inline text.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "tr": true,
}

// ArticleContent parses article HTML and returns the page title and the
// visible body text, paragraphs separated by newlines. When the page has
// an <article> element, only its subtree is read, which drops most page
// furniture on news sites.
func ArticleContent(htmlContent string) (title string, text string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = pageTitle(doc)

	root := findElement(doc, "article")
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}

	return title, visibleText(root), nil
}

// visibleText walks the tree collecting text nodes, skipping non-content
// elements and separating block elements with newlines.
func visibleText(root *html.Node) string {
	var blocks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				flush()
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				current.WriteString(text)
				current.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[n.Data] {
			flush()
		}
	}

	walk(root)
	flush()

	return strings.Join(blocks, "\n")
}

// pageTitle returns the <title> text, falling back to the first heading.
func pageTitle(doc *html.Node) string {
	if n := findElement(doc, "title"); n != nil {
		if t := nodeText(n); t != "" {
			return t
		}
	}
	if n := findElement(doc, "h1"); n != nil {
		return nodeText(n)
	}
	return ""
}

// findElement returns the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// nodeText collects the text under a node with whitespace collapsed.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

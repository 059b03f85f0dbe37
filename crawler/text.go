package crawler

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor turns article HTML into countable text.
type TextProcessor struct {
	stripEntityRegex *regexp.Regexp
}

// NewTextProcessor creates a new text processor
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{
		stripEntityRegex: regexp.MustCompile(`&[a-zA-Z]+;`),
	}
}

// CleanHTML drops scripts and styles and returns the page title and its
// visible text in NFC form.
func (tp *TextProcessor) CleanHTML(content string) (string, string) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", ""
	}

	var title string
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(strings.TrimSpace(n.Data))
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	clean := tp.stripEntityRegex.ReplaceAllString(text.String(), " ")
	clean = strings.Join(strings.Fields(clean), " ")
	return norm.NFC.String(title), norm.NFC.String(clean)
}

// Count returns the number of non-overlapping occurrences of label in text.
func (tp *TextProcessor) Count(text, label string) int {
	label = norm.NFC.String(strings.TrimSpace(label))
	if label == "" {
		return 0
	}
	return strings.Count(text, label)
}

// CountAll counts every label in text, in label order.
func (tp *TextProcessor) CountAll(text string, labels []string) []int {
	counts := make([]int, len(labels))
	for i, label := range labels {
		counts[i] = tp.Count(text, label)
	}
	return counts
}

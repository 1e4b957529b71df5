package fetcher

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strippedTags never contain source text.
const strippedTags = "script, style, noscript, header, footer, nav"

// extractHTML returns the page title and its visible text, with every
// text node trimmed and joined by single spaces.
func extractHTML(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(strippedTags).Remove()
	// Title text is not body content
	doc.Find("head").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return title, strings.Join(parts, " "), nil
}

// collectText appends trimmed text nodes in document order.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "#comment":
		default:
			collectText(c, parts)
		}
	})
}

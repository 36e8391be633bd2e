package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func extractLinks(doc *goquery.Document, baseURL string) []string {
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		if abs := resolveURL(baseURL, href); abs != "" {
			links = append(links, abs)
		}
	})

	return links
}

// resolveURL makes href absolute against base. Fragments survive; boundary
// filtering belongs to the crawler.
func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	relURL, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(relURL).String()
}

// ExtractTitle pulls the <title> of stored page content. Non-HTML content
// has no title.
func ExtractTitle(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ExtractText reduces stored page content to plain text. Plain-text content
// passes through with normalized whitespace.
func ExtractText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return normalizeSpace(content)
	}
	doc.Find("script, style, noscript, title").Remove()
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

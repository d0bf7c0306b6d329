package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// nonContentSelectors lists elements stripped before extracting visible text.
const nonContentSelectors = "script, style, noscript"

// Page is the navigable view of one fetched document.
type Page struct {
	// Title is the <title> text, trimmed.
	Title string
	// Text is the visible text content with scripts and styles removed.
	Text string
	// Links holds absolute http(s) URLs discovered in anchor hrefs,
	// resolved against the page URL.
	Links []string

	rawHTML string
}

// ParsePage parses raw HTML bytes into a Page. baseURL is used to resolve
// relative links. A parse failure maps to domain.ErrParse so callers can
// persist the page with empty extractions instead of dropping it.
func ParsePage(baseURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %v", domain.ErrParse, err)
	}

	page := &Page{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		rawHTML: string(body),
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}

		abs := base.ResolveReference(ref)
		if abs.Scheme == "http" || abs.Scheme == "https" {
			page.Links = append(page.Links, abs.String())
		}
	})

	body2 := doc.Find("body").First()
	if body2.Length() > 0 {
		body2.Find(nonContentSelectors).Remove()
		page.Text = strings.TrimSpace(body2.Text())
	}

	return page, nil
}

// Extractions runs the pattern extractors over the page's visible text and
// raw HTML.
func (p *Page) Extractions() domain.Extractions {
	return Extract(p.Text, p.rawHTML)
}

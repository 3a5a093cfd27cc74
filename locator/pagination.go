package locator

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// paginationSelectors are tried in order to discover next-page links.
var paginationSelectors = []cascadia.Selector{
	cascadia.MustCompile(`a[href*="page"]`),
	cascadia.MustCompile(`a[href*="p="]`),
	cascadia.MustCompile(`.pagination a, div.pager a`),
	cascadia.MustCompile(`a[href*="next"]`),
}

var paginationHref = regexp.MustCompile(`(?i)(page=\d+|p=\d+|offset=\d+|start=\d+|next|more)`)

// PaginationLinks extracts candidate next-page URLs from the page,
// resolved against baseURL, deduplicated and in discovery order. Links
// pointing off-site are dropped: following them would turn a single-page
// scraper into a crawler.
func (l *Locator) PaginationLinks(rawHTML, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	for _, sel := range paginationSelectors {
		doc.FindMatcher(sel).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
				return
			}
			if !paginationHref.MatchString(href) {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			abs := base.ResolveReference(ref)
			if abs.Host != base.Host {
				return
			}
			s := abs.String()
			if s == baseURL || seen[s] {
				return
			}
			seen[s] = true
			links = append(links, s)
		})
	}
	return links
}

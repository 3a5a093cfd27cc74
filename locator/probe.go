package locator

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// dynamicMarkers are substrings whose presence suggests the payload is
// populated client-side rather than server-rendered.
var dynamicMarkers = []string{
	"data-react", "ng-app", "vue-app",
	"loading...", "spinner", "skeleton", "placeholder",
	"data-src", "document.ready", "fetch(",
}

// Probe inspects statically fetched markup and reports whether it looks
// dynamically rendered or structurally insufficient; in either case the
// controller should escalate to the rendered engine. This is a cheap
// boolean check, not a full column resolution.
func (l *Locator) Probe(rawHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		// Unparseable markup cannot carry the table either way.
		return true
	}

	// A table with enough data rows settles it: the payload is present,
	// whatever script markers the page also carries.
	maxRows := 0
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		if n := len(dataRows(t)); n > maxRows {
			maxRows = n
		}
	})
	if maxRows >= l.minRows {
		return false
	}

	reason := "insufficient rows"
	lower := strings.ToLower(rawHTML)
	switch {
	case markerIn(lower):
		reason = "dynamic content marker"
	case emptyBodyWithScripts(doc):
		reason = "empty table body with script content"
	case len(visibleText(rawHTML)) < 200:
		reason = "near-empty visible body"
	}

	slog.Debug("probe: static structure insufficient",
		"reason", reason, "maxRows", maxRows, "minRows", l.minRows)
	return true
}

func markerIn(lower string) bool {
	for _, m := range dynamicMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// emptyBodyWithScripts reports a tbody with no rows alongside non-trivial
// script content, the classic shape of a script-populated table.
func emptyBodyWithScripts(doc *goquery.Document) bool {
	empty := false
	doc.Find("table tbody").Each(func(_ int, tb *goquery.Selection) {
		if tb.Find("tr").Length() == 0 {
			empty = true
		}
	})
	if !empty {
		return false
	}
	scriptLen := 0
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scriptLen += len(s.Text())
	})
	return scriptLen > 0
}

// visibleText extracts the visible text from within <body>, stripping all
// tags and <script>/<style> content. Used for heuristic analysis only.
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}

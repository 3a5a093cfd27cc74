package locator

import (
	"strings"
	"testing"
)

func TestProbeAcceptsPopulatedTable(t *testing.T) {
	if New(3).Probe(indexTable) {
		t.Error("Probe = true for a fully populated table, want false")
	}
}

func TestProbeFlagsLoadingPlaceholder(t *testing.T) {
	html := `<html><body>
<div class="spinner">Loading...</div>
<table id="tab01"><tbody></tbody></table>
<script>fetch("/api/quotes").then(render);</script>
</body></html>`

	if !New(3).Probe(html) {
		t.Error("Probe = false for a loading placeholder page, want true")
	}
}

func TestProbeFlagsEmptyBodyWithScripts(t *testing.T) {
	html := `<html><body>
<p>` + strings.Repeat("filler text to defeat the short-body heuristic. ", 10) + `</p>
<table id="tab01"><tbody></tbody></table>
<script>window.__DATA__ = {};</script>
</body></html>`

	if !New(3).Probe(html) {
		t.Error("Probe = false for script-populated empty table, want true")
	}
}

func TestProbeFlagsNearEmptyPage(t *testing.T) {
	if !New(3).Probe(`<html><body><div id="root"></div></body></html>`) {
		t.Error("Probe = false for a near-empty page, want true")
	}
}

func TestProbeFlagsInsufficientRows(t *testing.T) {
	// A real table, but far below the expected index size.
	if !New(50).Probe(indexTable) {
		t.Error("Probe = false for an undersized table, want true")
	}
}

func TestProbeIgnoresMarkersWhenTableIsComplete(t *testing.T) {
	// Script markers do not matter once the data is demonstrably present.
	html := strings.Replace(indexTable, "</body>",
		`<script>fetch("/api/refresh");</script></body>`, 1)

	if New(3).Probe(html) {
		t.Error("Probe = true despite a complete table, want false")
	}
}

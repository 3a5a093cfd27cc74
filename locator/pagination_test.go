package locator

import (
	"reflect"
	"testing"
)

func TestPaginationLinks(t *testing.T) {
	html := `<html><body>
<div class="pagination">
<a href="?p=2">2</a>
<a href="?p=3">3</a>
<a href="?p=2">2 again</a>
<a href="https://elsewhere.example/?p=2">offsite</a>
<a href="javascript:void(0)">js</a>
<a href="#top">anchor</a>
<a href="/about">unrelated</a>
</div>
</body></html>`

	got := New(3).PaginationLinks(html, "https://stooq.com/q/i/")
	want := []string{
		"https://stooq.com/q/i/?p=2",
		"https://stooq.com/q/i/?p=3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PaginationLinks = %v, want %v", got, want)
	}
}

func TestPaginationLinksExcludesSelf(t *testing.T) {
	html := `<html><body><a href="?p=2">current</a></body></html>`

	got := New(3).PaginationLinks(html, "https://stooq.com/q/i/?p=2")
	if len(got) != 0 {
		t.Errorf("PaginationLinks = %v, want none (link resolves to the base URL)", got)
	}
}

func TestPaginationLinksNoPager(t *testing.T) {
	if got := New(3).PaginationLinks(indexTable, "https://stooq.com/q/i/"); len(got) != 0 {
		t.Errorf("PaginationLinks = %v, want none", got)
	}
}

package generic

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const base = "https://example.com/series-x/chapter-12/"

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	return doc
}

func TestLocate_Empty(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Nothing to see</p><div class="reading-content"></div></body></html>`)

	got := NewLocator(nil, 0).Locate(doc, base)
	if len(got) != 0 {
		t.Errorf("Locate() = %v, want empty", got)
	}
}

func TestLocate_TierOneOrderAndAttrPriority(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<img src="https://example.com/logo.png">
<div class="reading-content">
  <div class="page-break"><img class="wp-manga-chapter-img" data-src=" https://cdn.example.com/c12/01.jpg " src="https://cdn.example.com/placeholder.gif"></div>
  <div class="page-break"><img class="wp-manga-chapter-img" data-src="" src="https://cdn.example.com/c12/02.jpg"></div>
  <div class="page-break"><img class="wp-manga-chapter-img" data-lazy-src="https://cdn.example.com/c12/03.jpg"></div>
  <div class="page-break"><img class="wp-manga-chapter-img" src="https://cdn.example.com/c12/04.jpg"></div>
</div>
<footer><img src="https://example.com/footer-banner.png"></footer>
</body></html>`)

	got := NewLocator(nil, 0).Locate(doc, base)
	want := []string{
		"https://cdn.example.com/c12/01.jpg",
		"https://cdn.example.com/c12/02.jpg",
		"https://cdn.example.com/c12/03.jpg",
		"https://cdn.example.com/c12/04.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locate() = %v, want %v", got, want)
	}
}

func TestLocate_RuleRankBeatsDocumentOrder(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div id="readerarea"><img src="https://cdn.example.com/r/1.jpg"></div>
<img class="wp-manga-chapter-img" src="https://cdn.example.com/w/1.jpg">
<img class="wp-manga-chapter-img" src="https://cdn.example.com/w/2.jpg">
</body></html>`)

	got := NewLocator(nil, 0).Locate(doc, base)
	want := []string{
		"https://cdn.example.com/w/1.jpg",
		"https://cdn.example.com/w/2.jpg",
		"https://cdn.example.com/r/1.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locate() = %v, want %v", got, want)
	}
}

func TestLocate_Dedup(t *testing.T) {
	// The first image matches both the madara class rule and the
	// reading-content rule; it must appear once, at its first position.
	doc := mustDoc(t, `<html><body><div class="reading-content">
<img class="wp-manga-chapter-img" src="https://cdn.example.com/1.jpg">
<img src="https://cdn.example.com/2.jpg">
<img src="https://cdn.example.com/1.jpg">
<img alt="page 3" src="https://cdn.example.com/3.jpg">
</div></body></html>`)

	got := NewLocator(nil, 0).Locate(doc, base)
	want := []string{
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/2.jpg",
		"https://cdn.example.com/3.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Locate() = %v, want %v", got, want)
	}
}

func TestLocate_TierOneRejectsNonHTTPValues(t *testing.T) {
	doc := mustDoc(t, `<html><body><div class="reading-content">
<img src="/relative/1.jpg">
<img src="https://cdn.example.com/2.jpg">
<img src="data:image/png;base64,AAAA">
</div></body></html>`)

	res := NewLocator(nil, 0).locate(doc, base)
	if res.PerRule["reading-content"] != 1 {
		t.Errorf("reading-content added %d, want 1", res.PerRule["reading-content"])
	}

	// The fallback picks the relative image up and drops the data URI.
	want := []string{
		"https://cdn.example.com/2.jpg",
		"https://example.com/relative/1.jpg",
	}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("Locate() = %v, want %v", res.URLs, want)
	}
}

func TestLocate_FallbackSkippedAtThreshold(t *testing.T) {
	// Denylisted words inside tier-1 results survive because the fallback
	// never runs once tier 1 reaches the threshold.
	doc := mustDoc(t, `<html><body>
<div id="readerarea">
<img src="https://cdn.example.com/icon-series/1.jpg">
<img src="https://cdn.example.com/icon-series/2.jpg">
<img src="https://cdn.example.com/icon-series/3.jpg">
</div>
<img src="https://cdn.example.com/unrelated.jpg">
</body></html>`)

	res := NewLocator(nil, 0).locate(doc, base)
	if res.Fallback {
		t.Fatal("fallback ran with 3 tier-1 candidates")
	}

	want := []string{
		"https://cdn.example.com/icon-series/1.jpg",
		"https://cdn.example.com/icon-series/2.jpg",
		"https://cdn.example.com/icon-series/3.jpg",
	}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("Locate() = %v, want %v", res.URLs, want)
	}
}

func TestLocate_FallbackBelowThreshold(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<header><img src="/static/Logo.png"><img src="/static/user-avatar.png"></header>
<div id="readerarea"><img src="https://cdn.example.com/p/1.jpg"></div>
<main>
<img data-src="p/2.jpg" src="spinner.gif">
<img src="  ">
<img src="https://cdn.example.com/p/1.jpg">
<img data-lazy-src="https://cdn.example.com/p/3.webp">
<img src="/img/Button-next.png">
</main>
<footer><img src="/img/pay.png" class="footer"></footer>
</body></html>`)

	res := NewLocator(nil, 0).locate(doc, base)
	if !res.Fallback {
		t.Fatal("fallback did not run with 1 tier-1 candidate")
	}

	want := []string{
		"https://cdn.example.com/p/1.jpg",
		"https://example.com/series-x/chapter-12/p/2.jpg",
		"https://cdn.example.com/p/3.webp",
		"https://example.com/img/pay.png",
	}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("Locate() = %v, want %v", res.URLs, want)
	}
}

func TestLocate_ConfigurableThreshold(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div id="readerarea"><img src="https://cdn.example.com/p/1.jpg"></div>
<img src="https://cdn.example.com/extra.jpg">
</body></html>`)

	res := NewLocator(nil, 1).locate(doc, base)
	if res.Fallback {
		t.Error("fallback ran although threshold 1 was met")
	}
	if len(res.URLs) != 1 {
		t.Errorf("got %d URLs, want 1", len(res.URLs))
	}
}

func TestRulesWithExtra(t *testing.T) {
	rules := RulesWithExtra(DefaultRules, []string{" ", "div.chapter-images img"})
	if len(rules) != len(DefaultRules)+1 {
		t.Fatalf("got %d rules, want %d", len(rules), len(DefaultRules)+1)
	}

	last := rules[len(rules)-1]
	if last.Selector != "div.chapter-images img" {
		t.Errorf("extra selector = %q", last.Selector)
	}
	if last.Rank <= DefaultRules[len(DefaultRules)-1].Rank {
		t.Errorf("extra rank %d not below defaults", last.Rank)
	}

	doc := mustDoc(t, `<html><body><div class="chapter-images">
<img src="https://cdn.example.com/a.jpg"><img src="https://cdn.example.com/b.jpg"><img src="https://cdn.example.com/c.jpg">
</div></body></html>`)

	res := NewLocator(rules, 0).locate(doc, base)
	if res.Fallback || len(res.URLs) != 3 {
		t.Errorf("extra rule: fallback=%t urls=%v", res.Fallback, res.URLs)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://cdn.example.com/1.jpg", "https://cdn.example.com/1.jpg", true},
		{"/abs/2.jpg", "https://example.com/abs/2.jpg", true},
		{"rel/3.jpg", "https://example.com/series-x/chapter-12/rel/3.jpg", true},
		{"//cdn.example.com/4.jpg", "https://cdn.example.com/4.jpg", true},
		{"javascript:void(0)", "", false},
		{"data:image/gif;base64,R0lGOD", "", false},
		{"http://[::1", "", false},
		{"https://cdn.example.com/manga/50%off.jpg", "https://cdn.example.com/manga/50%25off.jpg", true},
		{"https://cdn.example.com/a%20b/100%.png", "https://cdn.example.com/a%20b/100%25.png", true},
	}

	for _, tt := range tests {
		got, ok := resolve(base, tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("resolve(%q) = %q, %t; want %q, %t", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLocate_KeepsPageWithStrayPercent(t *testing.T) {
	doc := mustDoc(t, `<div class="reading-content">
<img src="https://cdn.example.com/manga/p1.jpg">
<img src="https://cdn.example.com/manga/50%off.jpg">
<img src="https://cdn.example.com/manga/p3.jpg">
<img src="https://cdn.example.com/manga/p4.jpg">
</div>`)

	res := NewLocator(nil, 0).locate(doc, base)

	want := []string{
		"https://cdn.example.com/manga/p1.jpg",
		"https://cdn.example.com/manga/50%25off.jpg",
		"https://cdn.example.com/manga/p3.jpg",
		"https://cdn.example.com/manga/p4.jpg",
	}
	if !reflect.DeepEqual(res.URLs, want) {
		t.Errorf("Locate() = %v, want %v", res.URLs, want)
	}
	if res.Fallback {
		t.Error("fallback ran although tier 1 found every page")
	}
}

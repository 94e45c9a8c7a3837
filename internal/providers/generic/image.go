package generic

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator finds page image URLs in a parsed chapter page.
type Locator struct {
	Rules             []Rule
	Denylist          []string
	FallbackThreshold int
}

func NewLocator(rules []Rule, threshold int) *Locator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if threshold <= 0 {
		threshold = DefaultFallbackThreshold
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	return &Locator{
		Rules:             sorted,
		Denylist:          DefaultDenylist,
		FallbackThreshold: threshold,
	}
}

type locateResult struct {
	URLs          []string
	PerRule       map[string]int
	Fallback      bool
	FallbackAdded int
}

// Locate returns absolute image URLs in discovery order, each at most once.
// An empty result means the page is not supported.
func (l *Locator) Locate(doc *goquery.Document, baseURL string) []string {
	return l.locate(doc, baseURL).URLs
}

func (l *Locator) locate(doc *goquery.Document, baseURL string) locateResult {
	col := newImageCollector()
	res := locateResult{PerRule: map[string]int{}}

	for _, r := range l.Rules {
		attrs := r.Attrs
		if len(attrs) == 0 {
			attrs = DefaultAttrs
		}

		doc.Find(r.Selector).Each(func(_ int, img *goquery.Selection) {
			v := readAttr(img, attrs)
			if v == "" || !strings.Contains(strings.ToLower(v), "http") {
				return
			}

			u, ok := resolve(baseURL, v)
			if !ok {
				return
			}

			if col.add(u) {
				res.PerRule[r.Name]++
			}
		})
	}

	if len(col.items) < l.FallbackThreshold {
		res.Fallback = true
		before := len(col.items)

		doc.Find("img").Each(func(_ int, img *goquery.Selection) {
			v := readAttr(img, DefaultAttrs)
			if v == "" {
				return
			}

			u, ok := resolve(baseURL, v)
			if !ok || l.denied(u) {
				return
			}

			col.add(u)
		})

		res.FallbackAdded = len(col.items) - before
	}

	res.URLs = col.items

	return res
}

func (l *Locator) denied(u string) bool {
	lu := strings.ToLower(u)
	for _, d := range l.Denylist {
		if strings.Contains(lu, strings.ToLower(d)) {
			return true
		}
	}

	return false
}

type imageCollector struct {
	items []string
	seen  map[string]bool
}

func newImageCollector() *imageCollector {
	return &imageCollector{
		items: make([]string, 0, 64),
		seen:  make(map[string]bool),
	}
}

func (c *imageCollector) add(u string) bool {
	if c.seen[u] {
		return false
	}

	c.seen[u] = true
	c.items = append(c.items, u)

	return true
}

// readAttr returns the first non-blank attribute value in priority order.
func readAttr(sel *goquery.Selection, attrs []string) string {
	for _, k := range attrs {
		if v, ok := sel.Attr(k); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	return ""
}

// resolve makes raw absolute against pageURL. Only http(s) results are kept.
func resolve(pageURL, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		// Hosts serve names like 50%off.jpg unescaped.
		if u, err = url.Parse(escapeStrayPercent(raw)); err != nil {
			return "", false
		}
	}

	if !u.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	default:
		return "", false
	}
}

// escapeStrayPercent turns every % that does not start a valid escape into %25.
func escapeStrayPercent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

package generic

import "strings"

// Rule is one tier-1 selector. Rules are applied in ascending Rank.
type Rule struct {
	Name     string
	Selector string
	Attrs    []string
	Rank     int
}

// DefaultAttrs is the attribute priority for reading an image reference:
// deferred source, source, lazy source.
var DefaultAttrs = []string{"data-src", "src", "data-lazy-src"}

// DefaultRules covers the reader markup seen on common manga hosts.
var DefaultRules = []Rule{
	{Name: "madara", Selector: "img.wp-manga-chapter-img", Attrs: DefaultAttrs, Rank: 1},
	{Name: "reading-content", Selector: "div.reading-content img", Attrs: DefaultAttrs, Rank: 2},
	{Name: "page-break", Selector: "div.page-break img", Attrs: DefaultAttrs, Rank: 3},
	{Name: "readerarea", Selector: "#readerarea img", Attrs: DefaultAttrs, Rank: 4},
	{Name: "alt-page", Selector: `img[alt*="page"]`, Attrs: DefaultAttrs, Rank: 5},
	{Name: "manga-path", Selector: `img[data-src*="manga"], img[src*="manga"]`, Attrs: DefaultAttrs, Rank: 6},
}

// DefaultDenylist rejects fallback candidates that are site chrome.
var DefaultDenylist = []string{"logo", "banner", "icon", "avatar", "button", "footer"}

// DefaultFallbackThreshold is the tier-1 count below which the fallback scan runs.
const DefaultFallbackThreshold = 3

// RulesWithExtra appends user selectors after base, ranked below every base rule.
func RulesWithExtra(base []Rule, selectors []string) []Rule {
	out := make([]Rule, 0, len(base)+len(selectors))
	out = append(out, base...)

	next := 0
	for _, r := range base {
		if r.Rank > next {
			next = r.Rank
		}
	}

	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}

		next++
		out = append(out, Rule{
			Name:     "extra:" + sel,
			Selector: sel,
			Attrs:    DefaultAttrs,
			Rank:     next,
		})
	}

	return out
}

package generic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/mangapdf/internal/util"
)

// ErrNoImages means neither selector tier found a page image.
var ErrNoImages = errors.New("no images found: site not supported or blocked")

const DefaultPageTimeout = 20 * time.Second

type Scraper struct {
	client      *http.Client
	loc         *Locator
	log         util.DebugLogger
	pageTimeout time.Duration
}

type Options struct {
	PageTimeout       time.Duration
	ExtraSelectors    []string
	FallbackThreshold int
}

func NewScraper(c *http.Client, log util.DebugLogger, opts Options) *Scraper {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}

	return &Scraper{
		client:      c,
		loc:         NewLocator(RulesWithExtra(DefaultRules, opts.ExtraSelectors), opts.FallbackThreshold),
		log:         log,
		pageTimeout: opts.PageTimeout,
	}
}

// FetchPage downloads and parses pageURL. It is not retried.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := util.CheckStatus(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}

func (s *Scraper) FindImages(doc *goquery.Document, pageURL string) []string {
	res := s.loc.locate(doc, pageURL)

	if s.log != nil {
		for _, r := range s.loc.Rules {
			if n := res.PerRule[r.Name]; n > 0 {
				s.log.Debugf("selector %s (%s): +%d candidates\n", r.Name, r.Selector, n)
			}
		}

		if res.Fallback {
			s.log.Debugf("fallback <img> scan: +%d candidates\n", res.FallbackAdded)
		}
	}

	return res.URLs
}

// GetImages fetches pageURL and returns its page images, or ErrNoImages.
func (s *Scraper) GetImages(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := s.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	images := s.FindImages(doc, pageURL)
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	return images, nil
}

package providers

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Scraper fetches a chapter page and finds its page images.
type Scraper interface {
	FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error)
	FindImages(doc *goquery.Document, pageURL string) []string
}

// Package generic implements a providers.Scraper for general HTML-based
// manga reading sites. Page images are found with a ranked table of reader
// selectors, falling back to a filtered scan of every <img> on the page when
// the selectors find too little.
package generic

package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/brogergvhs/mangapdf/internal/chapters"
	"github.com/brogergvhs/mangapdf/internal/util"
)

const (
	DefaultImageTimeout = 15 * time.Second
	DefaultDelay        = 250 * time.Millisecond
)

type Options struct {
	Workers      int
	Attempts     int
	Delay        time.Duration
	ImageTimeout time.Duration
	RetryBackoff time.Duration
}

type Downloader struct {
	client *http.Client
	log    util.DebugLogger
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(c *http.Client, log util.DebugLogger, opts Options) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = DefaultImageTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}

	return &Downloader{
		client:   c,
		log:      log,
		opts:     opts,
		limiters: map[string]*rate.Limiter{},
	}
}

// ItemResult is the outcome of one image download. Index is 1-based.
type ItemResult struct {
	Index int
	URL   string
	Path  string
	Bytes int64
	Err   error
}

func (r ItemResult) OK() bool { return r.Err == nil }

// BatchResult holds one ItemResult per requested URL, in input order.
type BatchResult struct {
	Items []ItemResult
}

func (b BatchResult) Files() []string {
	out := []string{}
	for _, it := range b.Items {
		if it.OK() {
			out = append(out, it.Path)
		}
	}

	return out
}

func (b BatchResult) Failed() []ItemResult {
	out := []ItemResult{}
	for _, it := range b.Items {
		if !it.OK() {
			out = append(out, it)
		}
	}

	return out
}

func (b BatchResult) Succeeded() int {
	return len(b.Files())
}

func (b BatchResult) Bytes() int64 {
	var n int64
	for _, it := range b.Items {
		if it.OK() {
			n += it.Bytes
		}
	}

	return n
}

// Progress is called after every finished item with the number of items done.
// Calls are serialized but may come from any worker goroutine.
type Progress func(done, total int)

// DownloadAll fetches urls into folder as page_NNN.ext. Failed items are
// recorded and skipped; the returned error is non-nil only when folder
// cannot be created or ctx is cancelled.
func (d *Downloader) DownloadAll(
	ctx context.Context,
	urls []string,
	folder string,
	referer string,
	progress Progress,
) (BatchResult, error) {
	res := BatchResult{Items: make([]ItemResult, len(urls))}
	for i, u := range urls {
		res.Items[i] = ItemResult{
			Index: i + 1,
			URL:   u,
			Path:  filepath.Join(folder, chapters.PageFileName(i+1, u)),
			Err:   errNotAttempted,
		}
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return res, fmt.Errorf("create working directory: %w", err)
	}

	total := len(urls)
	var mu sync.Mutex
	done := 0

	// progress runs under mu so counts arrive in increasing order.
	finish := func() {
		mu.Lock()
		defer mu.Unlock()

		done++
		if progress != nil {
			progress(done, total)
		}
	}

	runWorkers(ctx, total, d.opts.Workers, func(i int) {
		it := &res.Items[i]
		it.Bytes, it.Err = d.downloadWithRetry(ctx, it.URL, it.Path, referer)

		if it.Err != nil && d.log != nil {
			d.log.Debugf("page %d (%s) skipped: %v\n", it.Index, it.URL, it.Err)
		}

		finish()
	})

	if err := ctx.Err(); err != nil {
		for i := range res.Items {
			if res.Items[i].Err == errNotAttempted {
				res.Items[i].Err = err
			}
		}

		return res, err
	}

	return res, nil
}

func (d *Downloader) downloadWithRetry(ctx context.Context, u, output, referer string) (int64, error) {
	var written int64

	err := retry.Do(
		func() error {
			if err := d.wait(ctx, u); err != nil {
				return retry.Unrecoverable(err)
			}

			n, err := d.download(ctx, u, output, referer)
			written = n
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(d.opts.Attempts)),
		retry.Delay(d.opts.RetryBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *util.StatusError
			if errors.As(err, &se) {
				return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
			}
			return !errors.Is(err, errUnexpectedType)
		}),
	)

	return written, err
}

// wait blocks until the host of u may be contacted again.
func (d *Downloader) wait(ctx context.Context, u string) error {
	if d.opts.Delay == 0 {
		return ctx.Err()
	}

	host := u
	if pu, err := url.Parse(u); err == nil {
		host = pu.Host
	}

	d.mu.Lock()
	lim, ok := d.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(d.opts.Delay), 1)
		d.limiters[host] = lim
	}
	d.mu.Unlock()

	return lim.Wait(ctx)
}

var (
	errUnexpectedType = errors.New("unexpected content type")
	errNotAttempted   = errors.New("not attempted")
)

func (d *Downloader) download(ctx context.Context, u, output, referer string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.ImageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := util.CheckStatus(resp); err != nil {
		return 0, err
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); strings.HasPrefix(mt, "text/") {
			return 0, fmt.Errorf("%w: %s", errUnexpectedType, ct)
		}
	}

	tmp := output + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	written, err := copyChunked(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	if err := util.ReplaceFile(tmp, output); err != nil {
		return 0, err
	}

	return written, nil
}

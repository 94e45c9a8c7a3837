package util

import (
	"fmt"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

// DefaultUserAgent is sent when no override is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type DebugLogger interface {
	Debugf(string, ...any)
}

type HTTPClientOptions struct {
	// Timeout is the overall client timeout; per-request deadlines are
	// applied by callers through the request context.
	Timeout          time.Duration
	UserAgent        string
	CloudflareBypass bool
	Transport        http.RoundTripper
	DebugLogger      DebugLogger
}

func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	var baseTransport http.RoundTripper
	if opts.Transport != nil {
		baseTransport = opts.Transport
	} else {
		baseTransport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        16,
			MaxConnsPerHost:     8,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	if opts.CloudflareBypass {
		baseTransport = cloudflarebp.AddCloudFlareByPass(baseTransport)
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: roundTripper{
			base: baseTransport,
			ua:   PickUserAgent(opts.UserAgent),
			log:  opts.DebugLogger,
		},
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("HTTP client initialized (timeout=%s, ua=%q, cloudflare=%t)\n",
			opts.Timeout, PickUserAgent(opts.UserAgent), opts.CloudflareBypass)
	}

	return client
}

type roundTripper struct {
	base http.RoundTripper
	ua   string
	log  DebugLogger
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", rt.ua)

	if rt.log != nil {
		rt.log.Debugf("HTTP %s %s\n", req.Method, req.URL.String())
	}

	return rt.base.RoundTrip(req)
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return DefaultUserAgent
}

// StatusError reports a response with a non-success status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// CheckStatus returns a *StatusError unless the response status is 2xx.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := &StatusError{StatusCode: resp.StatusCode}
		if resp.Request != nil {
			e.URL = resp.Request.URL.String()
		}
		return e
	}

	return nil
}

// Package source retrieves regulation content from web, PDF, and local
// sources and converts it to plain text for the segmentation core.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ContentKind classifies fetched bytes for the text extractors.
type ContentKind string

const (
	KindHTML  ContentKind = "html"
	KindPDF   ContentKind = "pdf"
	KindPlain ContentKind = "plain"
)

// DefaultUserAgent is sent on outbound requests. Several regulatory
// portals refuse requests with a default Go user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps the size of any fetched document.
const maxBodyBytes = 20 * 1024 * 1024

// maxRedirects caps a redirect chain; longer chains fail the fetch
// rather than handing a 3xx body to kind detection.
const maxRedirects = 5

// Fetcher retrieves content from URLs or local file paths with per-host
// rate limiting.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	perHost   rate.Limit
}

// NewFetcher creates a Fetcher with the given request timeout. Each host
// is limited to one request per second.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		limiters:  make(map[string]*rate.Limiter),
		perHost:   rate.Every(time.Second),
	}
}

// Fetch retrieves content from a URL or local file path and classifies
// it as HTML, PDF, or plain text.
func (fetcher *Fetcher) Fetch(ctx context.Context, sourceRef string) ([]byte, ContentKind, error) {
	if sourceRef == "" {
		return nil, "", fmt.Errorf("empty source")
	}

	if _, err := os.Stat(sourceRef); err == nil {
		return fetchLocal(sourceRef)
	}

	return fetcher.fetchURL(ctx, sourceRef)
}

// fetchLocal reads a local file and detects its kind from the extension
// and content.
func fetchLocal(path string) ([]byte, ContentKind, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read local source %s: %w", path, err)
	}
	return content, detectKind(filepath.Ext(path), "", content), nil
}

// fetchURL retrieves content over HTTP, respecting the per-host rate
// limit.
func (fetcher *Fetcher) fetchURL(ctx context.Context, targetURL string) ([]byte, ContentKind, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL %s: %w", targetURL, err)
	}

	if err := fetcher.limiterFor(parsedURL.Host).Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit wait for %s: %w", parsedURL.Host, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for %s: %w", targetURL, err)
	}
	request.Header.Set("User-Agent", fetcher.userAgent)
	request.Header.Set("Accept", "text/html, application/xhtml+xml, application/pdf, text/plain")

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", targetURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return nil, "", fmt.Errorf("HTTP %d for %s", response.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body from %s: %w", targetURL, err)
	}

	kind := detectKind(filepath.Ext(parsedURL.Path), response.Header.Get("Content-Type"), body)
	return body, kind, nil
}

// limiterFor returns the rate limiter for a host, creating it on first
// use.
func (fetcher *Fetcher) limiterFor(host string) *rate.Limiter {
	fetcher.limiterMu.Lock()
	defer fetcher.limiterMu.Unlock()

	limiter, exists := fetcher.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(fetcher.perHost, 1)
		fetcher.limiters[host] = limiter
	}
	return limiter
}

// detectKind classifies content using the Content-Type header, the file
// extension, and leading magic bytes, in that order of preference.
func detectKind(extension, contentType string, content []byte) ContentKind {
	contentType = strings.ToLower(contentType)
	if strings.Contains(contentType, "pdf") {
		return KindPDF
	}
	if strings.Contains(contentType, "html") || strings.Contains(contentType, "xhtml") {
		return KindHTML
	}

	switch strings.ToLower(extension) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm", ".xhtml":
		return KindHTML
	}

	if bytes.HasPrefix(content, []byte("%PDF")) {
		return KindPDF
	}
	head := bytes.ToLower(content[:min(len(content), 1024)])
	if bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype")) {
		return KindHTML
	}

	return KindPlain
}

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// minContentLength is the minimum extracted text size accepted from a
// source; anything shorter is treated as a failed extraction (cookie
// walls, error pages).
const minContentLength = 100

// ContentUnavailableError reports that every configured source for a
// regulation failed. It carries the manual-placement path so the caller
// can print recovery instructions.
type ContentUnavailableError struct {
	RegionID     string
	RegulationID string
	Sources      []string
}

// Error implements the error interface.
func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("content unavailable for %s/%s: all %d sources failed",
		e.RegionID, e.RegulationID, len(e.Sources))
}

// ManualPath returns where a manually downloaded document should be
// placed for re-ingestion.
func (e *ContentUnavailableError) ManualPath() string {
	return filepath.Join("manual", e.RegionID, e.RegulationID+".pdf")
}

// Instructions renders the manual-placement instructions shown when all
// automated extraction failed.
func (e *ContentUnavailableError) Instructions() string {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&builder, "MANUAL PLACEMENT REQUIRED: %s/%s\n", e.RegionID, e.RegulationID)
	builder.WriteString(strings.Repeat("=", 70) + "\n\n")
	builder.WriteString("All automated extraction methods failed.\n\nSource URLs:\n")
	for i, sourceRef := range e.Sources {
		fmt.Fprintf(&builder, "  %d. %s\n", i+1, sourceRef)
	}
	fmt.Fprintf(&builder, "\nPlease manually download the document and place it at:\n  %s\n", e.ManualPath())
	builder.WriteString("\nThen re-run the update.\n")
	builder.WriteString(strings.Repeat("=", 70) + "\n")
	return builder.String()
}

// Scraper orchestrates content fetching with the HTML-first fallback
// strategy: HTML sources, then PDF sources, then HTML sources re-tried
// as PDFs in case of content-type misdetection.
type Scraper struct {
	fetcher *Fetcher
	cache   *DiskCache
}

// NewScraper creates a Scraper around a fetcher. The cache is optional;
// a nil cache disables caching.
func NewScraper(fetcher *Fetcher, cache *DiskCache) *Scraper {
	return &Scraper{fetcher: fetcher, cache: cache}
}

// Scrape extracts plain text for a regulation from its configured
// sources. Local files are tried before any remote source, whatever
// their kind; a manually placed PDF must not lose to a remote page that
// clears the length check with boilerplate. On total failure it returns
// a *ContentUnavailableError.
func (scraper *Scraper) Scrape(ctx context.Context, regionID, regulationID string, sources []string) (string, error) {
	var localSources, htmlSources, pdfSources []string
	for _, sourceRef := range sources {
		switch {
		case isLocalPath(sourceRef):
			localSources = append(localSources, sourceRef)
		case looksLikePDF(sourceRef):
			pdfSources = append(pdfSources, sourceRef)
		default:
			htmlSources = append(htmlSources, sourceRef)
		}
	}

	for _, sourceRef := range localSources {
		if text, ok := scraper.trySource(ctx, sourceRef, KindHTML, KindPDF, KindPlain); ok {
			return text, nil
		}
	}
	for _, sourceRef := range htmlSources {
		if text, ok := scraper.trySource(ctx, sourceRef, KindHTML, KindPlain); ok {
			return text, nil
		}
	}
	for _, sourceRef := range pdfSources {
		if text, ok := scraper.trySource(ctx, sourceRef, KindPDF); ok {
			return text, nil
		}
	}
	// HTML-classified sources occasionally serve PDF bytes.
	for _, sourceRef := range htmlSources {
		if text, ok := scraper.trySource(ctx, sourceRef, KindPDF); ok {
			return text, nil
		}
	}

	return "", &ContentUnavailableError{
		RegionID:     regionID,
		RegulationID: regulationID,
		Sources:      sources,
	}
}

// trySource fetches one source and extracts text if the content matches
// one of the accepted kinds.
func (scraper *Scraper) trySource(ctx context.Context, sourceRef string, accepted ...ContentKind) (string, bool) {
	content, kind, err := scraper.fetch(ctx, sourceRef)
	if err != nil {
		return "", false
	}
	matched := false
	for _, want := range accepted {
		if kind == want {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	var text string
	switch kind {
	case KindHTML:
		text, err = ExtractHTMLText(content, sourceRef)
	case KindPDF:
		text, err = ExtractPDFText(content)
	default:
		text = string(content)
	}
	if err != nil {
		return "", false
	}

	text = strings.TrimSpace(text)
	if len(text) < minContentLength {
		return "", false
	}
	return text, true
}

// fetch retrieves a source through the cache when one is configured.
func (scraper *Scraper) fetch(ctx context.Context, sourceRef string) ([]byte, ContentKind, error) {
	if scraper.cache != nil {
		if content, kind, hit := scraper.cache.Get(sourceRef); hit {
			return content, kind, nil
		}
	}

	content, kind, err := scraper.fetcher.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, "", err
	}

	if scraper.cache != nil {
		// Cache failures do not fail the fetch.
		_ = scraper.cache.Set(sourceRef, content, kind)
	}
	return content, kind, nil
}

// isLocalPath reports whether a source reference names an existing
// local file.
func isLocalPath(sourceRef string) bool {
	info, err := os.Stat(sourceRef)
	return err == nil && !info.IsDir()
}

// looksLikePDF reports whether a source reference is likely a PDF.
func looksLikePDF(sourceRef string) bool {
	lowered := strings.ToLower(sourceRef)
	return strings.HasSuffix(lowered, ".pdf") ||
		strings.Contains(lowered, ".pdf") ||
		strings.Contains(lowered, "/pdf")
}

package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/lexingest/pkg/regulation"
)

// maxSummaryLength caps article and document summaries before the
// ellipsis marker is appended.
const maxSummaryLength = 500

// ellipsis marks a truncated summary.
const ellipsis = "..."

var (
	// headerLinePattern recognizes a line that is itself an article or
	// section header, for exclusion from titles and summaries.
	headerLinePattern = regexp.MustCompile(`^ ?(?i:article|art\.|section|§) *\d`)

	// sentenceEndPattern finds the first sentence terminator followed by
	// whitespace.
	sentenceEndPattern = regexp.MustCompile(`[.!?]\s`)

	// trailingParentheticalPattern matches parenthetical metadata at the
	// end of a line or joined span, such as amendment citations.
	trailingParentheticalPattern = regexp.MustCompile(`\s*\([^()]*\)[\s.;,]*$`)

	// introLabelPattern captures text following an introduction,
	// preamble, overview, or summary label, up to the next blank line or
	// capitalized line start.
	introLabelPattern = regexp.MustCompile(`(?is)(?:introduction|preamble|overview|summary)[:\s]+(.+?)(?:\n\n|\n[A-Z])`)

	// leadingTextPattern captures the opening 100-500 characters before
	// the first article or section marker or blank line.
	leadingTextPattern = regexp.MustCompile(`(?is)^(.{100,500}?)(?:article|section|\n\n)`)
)

// Extractor derives article records and summaries from located marker
// positions. It holds no per-document state and is safe for concurrent
// reuse.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractArticles slices text into per-article spans at the marker
// positions and derives a title and summary for each. Consecutive spans
// partition the text with no gaps or overlaps; the last span runs to the
// end. When no markers were located, the whole document becomes a single
// article numbered "1". Empty input yields no articles.
func (ex *Extractor) ExtractArticles(markers []ArticleMarker, text string) []regulation.Article {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if len(markers) == 0 {
		markers = []ArticleMarker{{Position: 0, RawNumber: "1", CanonicalNumber: "1"}}
	}

	articles := make([]regulation.Article, 0, len(markers))
	for i, marker := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].Position
		}
		span := text[marker.Position:end]

		articles = append(articles, regulation.Article{
			Number:  marker.CanonicalNumber,
			Title:   ex.deriveTitle(span, marker.CanonicalNumber),
			Summary: ex.deriveSummary(span),
		})
	}
	return articles
}

// deriveTitle finds a title for an article span. It first tries trailing
// same-line text on the header line itself, then the first plausible
// non-header line, then falls back to a generic title.
func (ex *Extractor) deriveTitle(span, canonicalNumber string) string {
	headerTitle := regexp.MustCompile(
		`(?i)^ ?(?:article|art\.|section|§) *` + numberPatternFor(canonicalNumber) + `[ .:\-]*([^\n]+)`,
	)
	if parts := headerTitle.FindStringSubmatch(span); parts != nil {
		title := cleanTitle(parts[1])
		if utf8.RuneCountInString(title) > 3 {
			return title
		}
	}

	// Fallback: first plausible line within the opening five lines.
	lines := strings.SplitN(span, "\n", 7)
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if headerLinePattern.MatchString(line) || paragraphMarkerPattern.MatchString(line) {
			continue
		}
		title := cleanTitle(line)
		if length := utf8.RuneCountInString(title); length > 3 && length < 200 {
			return title
		}
	}

	return "Article " + canonicalNumber
}

// deriveSummary builds a one-sentence summary of an article span from
// its body lines, excluding header and paragraph-marker lines.
func (ex *Extractor) deriveSummary(span string) string {
	var contentLines []string
	for _, line := range strings.Split(span, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if headerLinePattern.MatchString(line) || paragraphMarkerPattern.MatchString(line) {
			continue
		}
		contentLines = append(contentLines, line)
	}

	joined := strings.Join(contentLines, " ")
	if joined == "" {
		// The span holds nothing but header lines; summarize those
		// rather than return an empty summary.
		joined = strings.Join(strings.Fields(span), " ")
	}
	joined = trailingParentheticalPattern.ReplaceAllString(joined, "")
	if joined == "" {
		joined = strings.Join(strings.Fields(span), " ")
	}

	if loc := sentenceEndPattern.FindStringIndex(joined); loc != nil {
		return truncate(joined[:loc[0]], maxSummaryLength)
	}
	return truncate(joined, maxSummaryLength)
}

// ExtractDocumentSummary derives a document-level summary from full
// normalized text. Strategies are tried in order: a labeled introduction
// or preamble, the opening text before the first marker, the first
// paragraph, and finally the opening maxLength characters. The first
// strategy producing more than 50 characters wins.
func (ex *Extractor) ExtractDocumentSummary(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = maxSummaryLength
	}

	if parts := introLabelPattern.FindStringSubmatch(text); parts != nil {
		if candidate := strings.TrimSpace(parts[1]); len(candidate) > 50 {
			return truncate(candidate, maxLength)
		}
	}

	if parts := leadingTextPattern.FindStringSubmatch(text); parts != nil {
		if candidate := strings.TrimSpace(parts[1]); len(candidate) > 50 {
			return truncate(candidate, maxLength)
		}
	}

	if paragraph := strings.TrimSpace(strings.SplitN(text, "\n\n", 2)[0]); len(paragraph) > 50 {
		return truncate(paragraph, maxLength)
	}

	return truncate(strings.TrimSpace(text), maxLength)
}

// numberPatternFor builds a regular expression fragment matching every
// spacing and hyphenation variant of a canonical article number.
func numberPatternFor(canonicalNumber string) string {
	if parts := suffixNumberPattern.FindStringSubmatch(canonicalNumber); parts != nil {
		return regexp.QuoteMeta(parts[1]) + ` *-? *[` +
			strings.ToUpper(parts[2]) + strings.ToLower(parts[2]) + `]\b`
	}
	return regexp.QuoteMeta(canonicalNumber) + `\b`
}

// cleanTitle strips surrounding punctuation and trailing parenthetical
// metadata from a candidate title.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = trailingParentheticalPattern.ReplaceAllString(title, "")
	title = strings.Trim(title, " \t:;,.-")
	return title
}

// truncate caps text at limit characters, appending an ellipsis marker
// when content was cut. The limit counts runes, not bytes, so multibyte
// text is never split inside a character.
func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	count := 0
	for i := range text {
		if count == limit {
			return text[:i] + ellipsis
		}
		count++
	}
	return text
}

// Package segment partitions normalized regulatory text into discrete
// articles. The locator finds article header positions with an ordered
// rule table, the extractor slices the text into per-article records,
// and the guidance tagger derives advisory notes from keyword triggers.
package segment

import (
	"regexp"
	"sort"
	"strings"
)

// ArticleMarker is a located position in text believed to begin a new
// article or section.
type ArticleMarker struct {
	// Position is the byte offset of the header line start.
	Position int

	// RawNumber is the number token exactly as captured.
	RawNumber string

	// CanonicalNumber is the normalized article identifier, stable
	// across runs (e.g. "55 A" and "55 - A" both canonicalize to "55-A").
	CanonicalNumber string
}

// markerRule is one entry in the ordered header-detection table. Rules
// are evaluated in declared order; suffix-capable rules precede their
// plain-integer counterparts so "Art. 55-A" is not truncated to "55".
type markerRule struct {
	name     string
	pattern  *regexp.Regexp
	suffixed bool
}

// suffixedNumber captures an article number with a trailing letter
// suffix: hyphenated in any case ("55-A", "55 - a"), space-separated
// only when uppercase ("55 A", so "5 a controller" is not a suffix),
// or attached ("32a").
const suffixedNumber = `(\d+(?: ?- ?[A-Za-z]| [A-Z]|[A-Za-z]))\b`

// plainNumber captures a bare integer article number.
const plainNumber = `(\d+)\b`

// defaultMarkerRules is the ordered header rule table. Every pattern is
// anchored to a line start with at most one leading space; mid-sentence
// occurrences of the same tokens never match.
var defaultMarkerRules = []markerRule{
	{name: "article-suffixed", pattern: regexp.MustCompile(`(?m)^ ?(?i:article) +` + suffixedNumber), suffixed: true},
	{name: "art-suffixed", pattern: regexp.MustCompile(`(?m)^ ?(?i:art)\. *` + suffixedNumber), suffixed: true},
	{name: "section-suffixed", pattern: regexp.MustCompile(`(?m)^ ?(?i:section) +` + suffixedNumber), suffixed: true},
	{name: "article", pattern: regexp.MustCompile(`(?m)^ ?(?i:article) +` + plainNumber)},
	{name: "art", pattern: regexp.MustCompile(`(?m)^ ?(?i:art)\. *` + plainNumber)},
	{name: "section", pattern: regexp.MustCompile(`(?m)^ ?(?i:section) +` + plainNumber)},
	{name: "silcrow", pattern: regexp.MustCompile(`(?m)^ ?§ *` + plainNumber)},
}

var (
	// paragraphMarkerPattern matches ordinal paragraph references such
	// as the Brazilian "§ 2º", which are paragraph markers inside an
	// article, never article headers.
	paragraphMarkerPattern = regexp.MustCompile(`^ ?§ *\d+ *[ºo°]`)

	// lowercaseRefPattern matches a lowercase "art." led into by running
	// lowercase prose, the shape of an in-text cross-reference that ran
	// up to a line break.
	lowercaseRefPattern = regexp.MustCompile(`[a-z][ (]*art\.\s*$`)

	// possessiveRefPattern matches possessive constructs meaning
	// "of article" in the languages the ingested regulations use.
	possessiveRefPattern = regexp.MustCompile(`(?i)(?:nos termos d[oa]|d[oa] artigo|of article|in article|under article|pursuant to article|del art[íi]culo|de l'article)\s*$`)

	// suffixNumberPattern recognizes a captured number with a trailing
	// letter suffix, however the suffix was spaced or hyphenated.
	suffixNumberPattern = regexp.MustCompile(`^(\d+)[ -]*([A-Za-z])$`)
)

// referenceWindow is how far back the classifier looks for reference
// idioms preceding a candidate header.
const referenceWindow = 50

// Locator scans normalized text for article headers. It holds only the
// compiled rule table, so a single Locator is safe for concurrent use
// across documents.
type Locator struct {
	rules []markerRule
}

// NewLocator creates a Locator with the default header rule table.
func NewLocator() *Locator {
	return &Locator{rules: defaultMarkerRules}
}

// Locate returns the article markers found in text, ordered by position.
// Candidates on paragraph-marker lines, candidates classified as in-text
// references, and candidates not anchored at a line start are rejected;
// ambiguous placements always reject rather than risk a false header.
// A zero-marker result means the caller should treat the whole document
// as a single unlabeled unit.
func (loc *Locator) Locate(text string) []ArticleMarker {
	seen := make(map[int]bool)
	var markers []ArticleMarker

	for _, rule := range loc.rules {
		for _, match := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			start := match[0]
			if seen[start] {
				// An earlier rule already claimed this position.
				continue
			}

			if paragraphMarkerPattern.MatchString(lineAt(text, start)) {
				continue
			}
			if isReference(text, start) {
				continue
			}
			if !isAnchored(text, start) {
				continue
			}

			rawNumber := text[match[2]:match[3]]
			seen[start] = true
			markers = append(markers, ArticleMarker{
				Position:        start,
				RawNumber:       rawNumber,
				CanonicalNumber: CanonicalNumber(rawNumber),
			})
		}
	}

	sort.Slice(markers, func(i, j int) bool {
		return markers[i].Position < markers[j].Position
	})
	return markers
}

// CanonicalNumber normalizes a captured article number: internal
// whitespace collapses and a letter suffix is joined to the numeric part
// with a single hyphen, uppercased.
func CanonicalNumber(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if parts := suffixNumberPattern.FindStringSubmatch(collapsed); parts != nil {
		return parts[1] + "-" + strings.ToUpper(parts[2])
	}
	return collapsed
}

// isReference classifies a candidate header as an in-text reference when
// the character immediately before it is a lowercase letter, or when the
// preceding window ends in a known reference idiom leading into the
// candidate.
func isReference(text string, matchStart int) bool {
	if matchStart > 0 {
		previous := text[matchStart-1]
		if previous >= 'a' && previous <= 'z' {
			return true
		}
	}

	windowStart := matchStart - referenceWindow
	if windowStart < 0 {
		windowStart = 0
	}
	window := text[windowStart:matchStart]

	return lowercaseRefPattern.MatchString(window) ||
		possessiveRefPattern.MatchString(window)
}

// isAnchored reports whether the candidate sits at a true line start
// (allowing at most one leading space) or immediately after sentence-
// terminating punctuation plus whitespace. Everything else is ambiguous
// and rejected.
func isAnchored(text string, matchStart int) bool {
	if matchStart == 0 || text[matchStart-1] == '\n' {
		return true
	}
	if text[matchStart-1] == ' ' && (matchStart == 1 || text[matchStart-2] == '\n') {
		return true
	}

	// Scan back over whitespace to the nearest printing character.
	i := matchStart - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n') {
		i--
	}
	if i >= 0 && i < matchStart-1 {
		switch text[i] {
		case '.', '!', '?':
			return true
		}
	}
	return false
}

// lineAt returns the full line of text containing the given offset.
func lineAt(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

// Package normalize canonicalizes raw extracted text before segmentation.
// Normalization is a total function: it never fails, and its output is
// never longer than its input.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// inlineWhitespacePattern matches runs of tab, form-feed, and
	// vertical-tab characters that should collapse to a single space.
	inlineWhitespacePattern = regexp.MustCompile(`[\t\f\v]+`)

	// excessSpacePattern matches three or more consecutive spaces.
	excessSpacePattern = regexp.MustCompile(` {3,}`)

	// excessNewlinePattern matches three or more consecutive newlines,
	// which collapse to the two-newline paragraph-break convention.
	excessNewlinePattern = regexp.MustCompile(`\n{3,}`)

	// invisiblePattern matches zero-width characters and byte-order marks
	// that survive HTML and PDF extraction.
	invisiblePattern = regexp.MustCompile("[​‌‍\uFEFF]")
)

// quoteReplacer maps curly quote glyphs to their straight equivalents.
var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Normalize canonicalizes whitespace, line endings, quote glyphs, and
// invisible characters in text. Applying it twice yields the same result
// as applying it once.
func Normalize(text string) string {
	// Unify line-ending styles before touching other whitespace so a
	// CRLF pair collapses to one newline rather than a space + newline.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// Character substitutions run before run-collapsing so that spaces
	// produced here still collapse, keeping Normalize idempotent.
	text = invisiblePattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, " ", " ")
	text = quoteReplacer.Replace(text)

	text = inlineWhitespacePattern.ReplaceAllString(text, " ")
	text = excessSpacePattern.ReplaceAllString(text, " ")
	text = excessNewlinePattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

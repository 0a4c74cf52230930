package source

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// mainContentSelectors are tried in order when falling back to
// selector-based extraction; regulatory portals commonly wrap the statute
// text in one of these containers.
var mainContentSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".content",
	"#content",
	".main-content",
	"#main-content",
	".regulation-content",
	"#regulation-content",
}

// chromeSelectors are stripped before selector-based extraction.
var chromeSelectors = []string{"script", "style", "nav", "header", "footer", "aside"}

// ExtractHTMLText converts raw HTML to plain text. A readability pass
// runs first to isolate the main document body; when it yields nothing
// useful, a selector-based goquery extraction takes over. The page URL
// is used to resolve relative links during the readability pass.
func ExtractHTMLText(rawHTML []byte, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || parsedURL.Host == "" {
		parsedURL = &url.URL{Scheme: "file", Path: "/"}
	}

	if article, err := readability.FromReader(bytes.NewReader(rawHTML), parsedURL); err == nil {
		if text := cleanExtractedText(article.TextContent); text != "" {
			return text, nil
		}
	}

	document, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range chromeSelectors {
		document.Find(selector).Remove()
	}

	for _, selector := range mainContentSelectors {
		if selection := document.Find(selector).First(); selection.Length() > 0 {
			if text := cleanExtractedText(selectionText(selection)); text != "" {
				return text, nil
			}
		}
	}

	if body := document.Find("body").First(); body.Length() > 0 {
		if text := cleanExtractedText(selectionText(body)); text != "" {
			return text, nil
		}
	}

	return cleanExtractedText(selectionText(document.Selection)), nil
}

// selectionText renders a goquery selection as newline-separated block
// text.
func selectionText(selection *goquery.Selection) string {
	var builder strings.Builder
	selection.Find("h1, h2, h3, h4, h5, h6, p, li, td, div").Each(func(_ int, block *goquery.Selection) {
		// Only take blocks without nested blocks, so text is not
		// duplicated through ancestor containers.
		if block.Find("p, li, div").Length() > 0 {
			return
		}
		line := strings.TrimSpace(block.Text())
		if line != "" {
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
	})
	if builder.Len() == 0 {
		return selection.Text()
	}
	return builder.String()
}

// cleanExtractedText drops very short fragment lines and collapses
// excessive blank lines.
func cleanExtractedText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 2 {
			lines = append(lines, line)
		}
	}
	joined := strings.Join(lines, "\n")
	for strings.Contains(joined, "\n\n\n") {
		joined = strings.ReplaceAll(joined, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(joined)
}

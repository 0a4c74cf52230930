package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText extracts the page text of a PDF document. Pages whose
// extraction fails are skipped; the document errors only when it cannot
// be opened at all or yields no text anywhere.
func ExtractPDFText(rawPDF []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(rawPDF), int64(len(rawPDF)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var pageTexts []string
	for pageNumber := 1; pageNumber <= reader.NumPage(); pageNumber++ {
		page := reader.Page(pageNumber)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			pageTexts = append(pageTexts, pageText)
		}
	}

	text := cleanExtractedText(strings.Join(pageTexts, "\n\n"))
	if text == "" {
		return "", fmt.Errorf("no text content extracted from PDF")
	}
	return text, nil
}

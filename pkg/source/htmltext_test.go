package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHTMLText_MainContent(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Regulation portal</title><style>p { color: red }</style></head>
<body>
<nav><a href="/">Home</a></nav>
<main>
<h1>Article 1</h1>
<p>This Regulation lays down rules relating to the protection of natural
persons with regard to the processing of personal data.</p>
<p>It protects fundamental rights and freedoms of natural persons.</p>
</main>
<footer>Copyright notice</footer>
</body>
</html>`

	text, err := ExtractHTMLText([]byte(page), "https://example.gov/regulation")
	require.NoError(t, err)
	assert.Contains(t, text, "Article 1")
	assert.Contains(t, text, "protection of natural")
	assert.Contains(t, text, "fundamental rights")
	assert.NotContains(t, text, "color: red")
}

func TestExtractHTMLText_BodyFallback(t *testing.T) {
	page := `<html><body>
<p>Covered entities must implement administrative, physical, and technical
safeguards for protected health information under this rule.</p>
</body></html>`

	text, err := ExtractHTMLText([]byte(page), "not a url")
	require.NoError(t, err)
	assert.Contains(t, text, "safeguards for protected health information")
}

func TestExtractHTMLText_NoDuplicationThroughNesting(t *testing.T) {
	page := `<html><body><div class="content"><div>
<p>Processing shall be lawful only if the data subject has given consent.</p>
</div></div></body></html>`

	text, err := ExtractHTMLText([]byte(page), "https://example.gov/act")
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(text, "Processing shall be lawful"))
}

func countOccurrences(text, substring string) int {
	count := 0
	for i := 0; i+len(substring) <= len(text); i++ {
		if text[i:i+len(substring)] == substring {
			count++
		}
	}
	return count
}

func TestCleanExtractedText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops fragment lines",
			input: "Article 1\nok\n»\nScope of this law",
			want:  "Article 1\nScope of this law",
		},
		{
			name:  "collapses blank runs",
			input: "First paragraph\n\n\n\n\nSecond paragraph",
			want:  "First paragraph\nSecond paragraph",
		},
		{
			name:  "trims surrounding whitespace",
			input: "\n\n  Only line  \n\n",
			want:  "Only line",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanExtractedText(tt.input))
		})
	}
}

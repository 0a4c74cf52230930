package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lexingest/pkg/config"
	"github.com/coolbeans/lexingest/pkg/regulation"
	"github.com/coolbeans/lexingest/pkg/source"
	"github.com/coolbeans/lexingest/pkg/writer"
)

// statuteText is a small statute with recognizable article headers, a
// guidance trigger ("encrypt"), and enough length to pass the scraper's
// minimum content check.
const statuteText = `Regulation on the protection of personal data

This Regulation lays down rules relating to the protection of natural
persons with regard to the processing of personal data.

Article 1
Subject-matter and objectives
This Regulation protects fundamental rights and freedoms of natural
persons and in particular their right to the protection of personal data.

Article 2
Material scope
This Regulation applies to the processing of personal data wholly or
partly by automated means. Controllers shall encrypt personal data where
proportionate to the risk.
`

// testEnvironment wires a pipeline over temp directories with one region
// backed by a local plain-text source file.
func testEnvironment(t *testing.T, opts Options) (*Pipeline, *config.Config) {
	t.Helper()

	dataDir := t.TempDir()
	sourceDir := t.TempDir()
	sourcePath := filepath.Join(sourceDir, "testreg.txt")
	require.NoError(t, os.WriteFile(sourcePath, []byte(statuteText), 0o644))

	regions := &config.RegionsConfig{
		Regions: []config.Region{
			{
				ID:   "eu",
				Name: "European Union",
				Regulations: []config.RegulationSource{
					{ID: "testreg", Sources: []string{sourcePath}},
				},
			},
		},
	}
	data, err := json.Marshal(regions)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "regions.json"), data, 0o644))

	cfg, err := config.New(dataDir)
	require.NoError(t, err)

	docWriter, err := writer.New(cfg.DataDir)
	require.NoError(t, err)

	scraper := source.NewScraper(source.NewFetcher(5*time.Second), nil)
	if opts.ManualDir == "" {
		opts.ManualDir = filepath.Join(t.TempDir(), "manual")
	}
	return New(cfg, scraper, docWriter, nil, opts), cfg
}

func TestUpdateOne_WritesValidDocument(t *testing.T) {
	pipeline, cfg := testEnvironment(t, Options{})

	result, err := pipeline.UpdateOne(context.Background(), "eu", "testreg")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.ArticleCount)
	assert.Equal(t, 1, result.GuidanceCount)
	assert.Equal(t, filepath.Join(cfg.DataDir, "eu", "testreg.json"), result.ActivePath)

	data, err := os.ReadFile(result.ActivePath)
	require.NoError(t, err)

	var doc regulation.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "testreg", doc.ID)
	assert.Equal(t, "TESTREG", doc.Name)
	assert.Equal(t, "European Union", doc.Region)
	assert.Equal(t, regulation.RiskHigh, doc.RiskCategory)
	assert.NotEmpty(t, doc.Summary)

	require.Len(t, doc.Articles, 2)
	assert.Equal(t, "1", doc.Articles[0].Number)
	assert.Equal(t, "Subject-matter and objectives", doc.Articles[0].Title)
	assert.Equal(t, "2", doc.Articles[1].Number)
	assert.Equal(t, "Material scope", doc.Articles[1].Title)

	require.Len(t, doc.DeveloperGuidance, 1)
	assert.Contains(t, doc.DeveloperGuidance[0], "Encrypt")

	versionedData, err := os.ReadFile(result.VersionedPath)
	require.NoError(t, err)
	assert.Equal(t, data, versionedData)
}

func TestUpdateOne_DryRunWritesNothing(t *testing.T) {
	pipeline, cfg := testEnvironment(t, Options{DryRun: true})

	result, err := pipeline.UpdateOne(context.Background(), "eu", "testreg")
	require.NoError(t, err)
	assert.Empty(t, result.VersionedPath)
	assert.Empty(t, result.ActivePath)

	_, err = os.Stat(filepath.Join(cfg.DataDir, "eu"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpdateOne_UnknownRegion(t *testing.T) {
	pipeline, _ := testEnvironment(t, Options{})

	_, err := pipeline.UpdateOne(context.Background(), "atlantis", "testreg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region atlantis not found")
}

func TestUpdateOne_UnknownRegulation(t *testing.T) {
	pipeline, _ := testEnvironment(t, Options{})

	_, err := pipeline.UpdateOne(context.Background(), "eu", "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUpdateOne_ManualSourceTakesPrecedence(t *testing.T) {
	manualRoot := filepath.Join(t.TempDir(), "manual")
	require.NoError(t, os.MkdirAll(filepath.Join(manualRoot, "eu"), 0o755))

	manualText := `Manually placed statute text for ingestion.

Article 7
Conditions for consent
Where processing is based on consent, the controller shall be able to
demonstrate that the data subject has consented to processing.
`
	require.NoError(t, os.WriteFile(filepath.Join(manualRoot, "eu", "testreg.txt"), []byte(manualText), 0o644))

	pipeline, _ := testEnvironment(t, Options{ManualDir: manualRoot})

	result, err := pipeline.UpdateOne(context.Background(), "eu", "testreg")
	require.NoError(t, err)
	require.Equal(t, 1, result.ArticleCount)

	data, err := os.ReadFile(result.ActivePath)
	require.NoError(t, err)
	var doc regulation.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "7", doc.Articles[0].Number)
}

func TestUpdateAll_ContinuesPastFailures(t *testing.T) {
	pipeline, cfg := testEnvironment(t, Options{})

	// Add a regulation whose only source does not exist.
	regions, err := cfg.LoadRegions()
	require.NoError(t, err)
	regions.Regions[0].Regulations = append(regions.Regions[0].Regulations,
		config.RegulationSource{ID: "broken", Sources: []string{"/nonexistent/broken.txt"}})

	report, err := pipeline.UpdateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "testreg", report.Results[0].RegulationID)

	require.Contains(t, report.Failures, "eu/broken")
	var unavailable *source.ContentUnavailableError
	assert.ErrorAs(t, report.Failures["eu/broken"], &unavailable)
}

// Package ingest orchestrates the per-regulation pipeline: fetch,
// normalize, segment, tag, validate, and persist.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coolbeans/lexingest/pkg/config"
	"github.com/coolbeans/lexingest/pkg/normalize"
	"github.com/coolbeans/lexingest/pkg/regulation"
	"github.com/coolbeans/lexingest/pkg/segment"
	"github.com/coolbeans/lexingest/pkg/source"
	"github.com/coolbeans/lexingest/pkg/writer"
)

// Options configures a Pipeline.
type Options struct {
	// DryRun validates the full pipeline without writing files.
	DryRun bool

	// GuidanceRules overrides the default trigger table when non-nil.
	GuidanceRules []segment.GuidanceRule

	// ManualDir is the manual-placement directory checked for locally
	// downloaded source files before the configured sources are tried.
	// Defaults to "manual".
	ManualDir string
}

// Result reports the outcome of ingesting one regulation.
type Result struct {
	RunID         string
	RegionID      string
	RegulationID  string
	ArticleCount  int
	GuidanceCount int
	VersionedPath string
	ActivePath    string
}

// Report aggregates the results of a batch run.
type Report struct {
	Total     int
	Succeeded int
	Results   []*Result
	Failures  map[string]error
}

// Pipeline runs the ingestion steps for configured regulations. The
// locator and extractor hold no per-document state, so one Pipeline may
// process documents concurrently.
type Pipeline struct {
	cfg       *config.Config
	scraper   *source.Scraper
	docWriter *writer.Writer
	locator   *segment.Locator
	extractor *segment.Extractor
	rules     []segment.GuidanceRule
	dryRun    bool
	manualDir string
	logger    *zap.Logger
}

// New creates a Pipeline. A nil logger disables diagnostic logging.
func New(cfg *config.Config, scraper *source.Scraper, docWriter *writer.Writer, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	rules := opts.GuidanceRules
	if rules == nil {
		rules = segment.DefaultGuidanceRules()
	}
	manualDir := opts.ManualDir
	if manualDir == "" {
		manualDir = "manual"
	}
	return &Pipeline{
		cfg:       cfg,
		scraper:   scraper,
		docWriter: docWriter,
		locator:   segment.NewLocator(),
		extractor: segment.NewExtractor(),
		rules:     rules,
		dryRun:    opts.DryRun,
		manualDir: manualDir,
		logger:    logger,
	}
}

// manualSources lists manually placed source files for a regulation.
// They take precedence over the configured remote sources.
func (pipeline *Pipeline) manualSources(regionID, regulationID string) []string {
	matches, err := filepath.Glob(filepath.Join(pipeline.manualDir, regionID, regulationID+".*"))
	if err != nil {
		return nil
	}
	return matches
}

// UpdateOne ingests a single regulation identified by region and
// regulation ID. A *source.ContentUnavailableError is returned unwrapped
// in the chain so callers can surface manual-placement instructions.
func (pipeline *Pipeline) UpdateOne(ctx context.Context, regionID, regulationID string) (*Result, error) {
	runID := uuid.NewString()
	log := pipeline.logger.With(
		zap.String("run_id", runID),
		zap.String("region", regionID),
		zap.String("regulation", regulationID),
	)

	region, err := pipeline.cfg.Region(regionID)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, fmt.Errorf("region %s not found in regions.json", regionID)
	}

	regulationSource, err := pipeline.cfg.Regulation(regionID, regulationID)
	if err != nil {
		return nil, err
	}
	if regulationSource == nil {
		return nil, fmt.Errorf("regulation %s/%s not found in regions.json", regionID, regulationID)
	}
	sources := append(pipeline.manualSources(regionID, regulationID), regulationSource.Sources...)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured for %s/%s", regionID, regulationID)
	}

	log.Info("scraping sources", zap.Int("source_count", len(sources)))
	rawText, err := pipeline.scraper.Scrape(ctx, regionID, regulationID, sources)
	if err != nil {
		var unavailable *source.ContentUnavailableError
		if errors.As(err, &unavailable) {
			log.Warn("content unavailable", zap.Strings("sources", sources))
		}
		return nil, err
	}
	log.Info("extracted raw text", zap.Int("characters", len(rawText)))

	normalized := normalize.Normalize(rawText)

	markers := pipeline.locator.Locate(normalized)
	articles := pipeline.extractor.ExtractArticles(markers, normalized)
	summary := pipeline.extractor.ExtractDocumentSummary(normalized, 500)
	guidance := segment.TagGuidance(normalized, pipeline.rules)
	log.Info("segmented document",
		zap.Int("markers", len(markers)),
		zap.Int("articles", len(articles)),
		zap.Int("guidance", len(guidance)))

	doc := &regulation.Document{
		ID:                regulationID,
		Name:              config.RegulationName(regulationID),
		Region:            region.Name,
		RiskCategory:      regulation.RiskHigh,
		Summary:           summary,
		Articles:          articles,
		DeveloperGuidance: guidance,
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("document failed validation: %w", err)
	}

	result := &Result{
		RunID:         runID,
		RegionID:      regionID,
		RegulationID:  regulationID,
		ArticleCount:  len(articles),
		GuidanceCount: len(guidance),
	}

	if pipeline.dryRun {
		log.Info("dry run, skipping write")
		return result, nil
	}

	versionedPath, activePath, err := pipeline.docWriter.WriteDocument(doc, regionID)
	if err != nil {
		return nil, err
	}
	result.VersionedPath = versionedPath
	result.ActivePath = activePath
	log.Info("wrote document",
		zap.String("versioned", versionedPath),
		zap.String("active", activePath))

	return result, nil
}

// UpdateAll ingests every regulation in the registry, continuing past
// individual failures.
func (pipeline *Pipeline) UpdateAll(ctx context.Context) (*Report, error) {
	regions, err := pipeline.cfg.LoadRegions()
	if err != nil {
		return nil, err
	}

	report := &Report{Failures: make(map[string]error)}
	for _, region := range regions.Regions {
		for _, regulationSource := range region.Regulations {
			report.Total++
			key := region.ID + "/" + regulationSource.ID

			result, err := pipeline.UpdateOne(ctx, region.ID, regulationSource.ID)
			if err != nil {
				report.Failures[key] = err
				continue
			}
			report.Succeeded++
			report.Results = append(report.Results, result)
		}
	}
	return report, nil
}

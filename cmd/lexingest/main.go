package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/lexingest/pkg/config"
	"github.com/coolbeans/lexingest/pkg/ingest"
	"github.com/coolbeans/lexingest/pkg/segment"
	"github.com/coolbeans/lexingest/pkg/source"
	"github.com/coolbeans/lexingest/pkg/watchdir"
	"github.com/coolbeans/lexingest/pkg/writer"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexingest",
		Short: "Regulation Data Ingestor",
		Long: `Lexingest scrapes regulatory documents (GDPR, HIPAA, CCPA, ...),
segments them into structured articles, and maintains versioned JSON
records per region.

Each ingestion run writes a dated snapshot (<id>_<date>.json) and
refreshes the active file (<id>.json) under the region directory.`,
		Version: version,
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the data directory and regions.json registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")

			cfg, err := config.New(dataDir)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			docWriter, err := writer.New(cfg.DataDir)
			if err != nil {
				return err
			}
			regionsPath, err := docWriter.WriteRegions(config.DefaultRegions())
			if err != nil {
				return err
			}

			fmt.Printf("Initialized regions.json at %s\n", regionsPath)
			fmt.Printf("Created directory structure at %s\n", cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Override the "+config.DataDirEnv+" environment variable")
	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [all | <region> <regulation>]",
		Short: "Update regulation(s) from their configured sources",
		Long: `Update scrapes, segments, and persists regulations.

Examples:
  lexingest update all
  lexingest update eu gdpr --verbose
  lexingest update usa hipaa --dry-run`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			verbose, _ := cmd.Flags().GetBool("verbose")
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cfg, err := config.New(dataDir)
			if err != nil {
				return err
			}

			pipeline, logger, err := buildPipeline(cfg, cacheDir, timeout, dryRun, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			if len(args) == 1 {
				if args[0] != "all" {
					return fmt.Errorf("expected 'all' or '<region> <regulation>', got %q", args[0])
				}
				return runUpdateAll(ctx, pipeline)
			}
			return runUpdateOne(ctx, pipeline, args[0], args[1], dryRun)
		},
	}
	cmd.Flags().String("data-dir", "", "Override the "+config.DataDirEnv+" environment variable")
	cmd.Flags().Bool("dry-run", false, "Validate without writing files")
	cmd.Flags().BoolP("verbose", "v", false, "Print detailed pipeline logs")
	cmd.Flags().String("cache-dir", "", "Cache fetched sources in this directory")
	cmd.Flags().Duration("timeout", 30*time.Second, "Per-request fetch timeout")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured regions and regulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")

			cfg, err := config.New(dataDir)
			if err != nil {
				return err
			}
			regions, err := cfg.LoadRegions()
			if err != nil {
				return err
			}

			docWriter, err := writer.New(cfg.DataDir)
			if err != nil {
				return err
			}

			for _, region := range regions.Regions {
				fmt.Printf("%s (%s)\n", region.Name, region.ID)
				for _, reg := range region.Regulations {
					status := "never ingested"
					if latest, found := docWriter.LatestVersion(region.ID, reg.ID); found {
						status = "latest: " + filepath.Base(latest)
					}
					fmt.Printf("  %-8s %-52s %s\n", reg.ID, config.RegulationName(reg.ID), status)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Override the "+config.DataDirEnv+" environment variable")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the manual directory and re-ingest placed documents",
		Long: `Watch monitors the manual-placement directory
(manual/<region>/<regulation>.<ext>) and re-runs ingestion whenever a
manually downloaded source document appears or changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			manualDir, _ := cmd.Flags().GetString("manual-dir")
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.New(dataDir)
			if err != nil {
				return err
			}

			pipeline, logger, err := buildPipeline(cfg, cacheDir, timeout, false, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := func(ctx context.Context, regionID, regulationID, path string) {
				fmt.Printf("Detected %s, updating %s/%s...\n", path, regionID, regulationID)
				result, err := pipeline.UpdateOne(ctx, regionID, regulationID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error processing %s/%s: %v\n", regionID, regulationID, err)
					return
				}
				fmt.Printf("Saved versioned file: %s\n", result.VersionedPath)
				fmt.Printf("Updated active file: %s\n", result.ActivePath)
			}

			watcher := watchdir.New(manualDir, handler, logger)
			fmt.Printf("Watching %s (Ctrl-C to stop)\n", manualDir)
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("data-dir", "", "Override the "+config.DataDirEnv+" environment variable")
	cmd.Flags().String("manual-dir", "manual", "Manual-placement directory to watch")
	cmd.Flags().String("cache-dir", "", "Cache fetched sources in this directory")
	cmd.Flags().Duration("timeout", 30*time.Second, "Per-request fetch timeout")
	cmd.Flags().BoolP("verbose", "v", false, "Print detailed pipeline logs")
	return cmd
}

// buildPipeline assembles the ingestion pipeline shared by the update
// and watch commands.
func buildPipeline(cfg *config.Config, cacheDir string, timeout time.Duration, dryRun, verbose bool) (*ingest.Pipeline, *zap.Logger, error) {
	var cache *source.DiskCache
	if cacheDir != "" {
		var err error
		cache, err = source.NewDiskCache(cacheDir, 24*time.Hour)
		if err != nil {
			return nil, nil, err
		}
	}
	scraper := source.NewScraper(source.NewFetcher(timeout), cache)

	docWriter, err := writer.New(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}

	rules, err := guidanceRules(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := ingest.New(cfg, scraper, docWriter, logger, ingest.Options{
		DryRun:        dryRun,
		GuidanceRules: rules,
	})
	return pipeline, logger, nil
}

// guidanceRules loads the guidance trigger table override from the data
// directory when present, falling back to the built-in table.
func guidanceRules(cfg *config.Config) ([]segment.GuidanceRule, error) {
	overridePath := filepath.Join(cfg.DataDir, "guidance.yaml")
	if _, err := os.Stat(overridePath); os.IsNotExist(err) {
		return nil, nil
	}
	rules, err := segment.LoadGuidanceRules(overridePath)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func runUpdateAll(ctx context.Context, pipeline *ingest.Pipeline) error {
	report, err := pipeline.UpdateAll(ctx)
	if err != nil {
		return err
	}

	for _, result := range report.Results {
		fmt.Printf("%s/%s: %d articles", result.RegionID, result.RegulationID, result.ArticleCount)
		if result.ActivePath != "" {
			fmt.Printf(" -> %s", result.ActivePath)
		}
		fmt.Println()
	}
	for key, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", key, failure)
		printManualInstructions(failure)
	}

	fmt.Printf("\nCompleted: %d/%d regulations updated successfully\n", report.Succeeded, report.Total)
	if report.Succeeded < report.Total {
		return fmt.Errorf("%d regulation(s) failed", report.Total-report.Succeeded)
	}
	return nil
}

func runUpdateOne(ctx context.Context, pipeline *ingest.Pipeline, regionID, regulationID string, dryRun bool) error {
	result, err := pipeline.UpdateOne(ctx, regionID, regulationID)
	if err != nil {
		printManualInstructions(err)
		return fmt.Errorf("error processing %s/%s: %w", regionID, regulationID, err)
	}

	fmt.Printf("Extracted %d articles, %d guidance entries\n", result.ArticleCount, result.GuidanceCount)
	if dryRun {
		fmt.Println("Validation passed (dry-run mode)")
		return nil
	}
	fmt.Printf("Saved versioned file: %s\n", result.VersionedPath)
	fmt.Printf("Updated active file: %s\n", result.ActivePath)
	return nil
}

// printManualInstructions surfaces manual-placement instructions when
// every source for a regulation failed.
func printManualInstructions(err error) {
	var unavailable *source.ContentUnavailableError
	if errors.As(err, &unavailable) {
		fmt.Fprintln(os.Stderr, unavailable.Instructions())
	}
}

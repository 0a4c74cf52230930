// Package config manages the regions registry and data-directory
// resolution for the ingestion tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DataDirEnv is the environment variable naming the data directory.
const DataDirEnv = "REGULATION_DATA_DIR"

// defaultDataDir is used when no override and no environment variable
// are present.
const defaultDataDir = "./regulation-data"

// RegulationSource configures the ingestion sources for one regulation.
type RegulationSource struct {
	ID      string   `json:"id"`
	Sources []string `json:"sources"`
}

// Region groups the regulations of one jurisdiction.
type Region struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Regulations []RegulationSource `json:"regulations"`
}

// RegionsConfig is the root of the regions.json registry.
type RegionsConfig struct {
	Regions []Region `json:"regions"`
}

// Config resolves the data directory and loads the regions registry.
type Config struct {
	DataDir string

	regionsFile string
	cached      *RegionsConfig
}

// New resolves the configuration. Resolution order for the data
// directory: explicit override, the REGULATION_DATA_DIR environment
// variable (a .env file in the working directory is honored), then the
// ./regulation-data default with a warning on stderr.
func New(dataDirOverride string) (*Config, error) {
	// A missing .env file is not an error; environment variables and
	// the override still apply.
	_ = godotenv.Load()

	dataDir := dataDirOverride
	if dataDir == "" {
		dataDir = os.Getenv(DataDirEnv)
	}
	if dataDir == "" {
		fmt.Fprintf(os.Stderr, "Warning: %s not set. Using default: %s\n", DataDirEnv, defaultDataDir)
		dataDir = defaultDataDir
	}

	absolute, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", dataDir, err)
	}

	return &Config{
		DataDir:     absolute,
		regionsFile: filepath.Join(absolute, "regions.json"),
	}, nil
}

// RegionsFile returns the path of the regions.json registry.
func (cfg *Config) RegionsFile() string {
	return cfg.regionsFile
}

// LoadRegions reads and caches the regions registry.
func (cfg *Config) LoadRegions() (*RegionsConfig, error) {
	if cfg.cached != nil {
		return cfg.cached, nil
	}

	data, err := os.ReadFile(cfg.regionsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("regions.json not found at %s (run 'lexingest init' first)", cfg.regionsFile)
		}
		return nil, fmt.Errorf("failed to read %s: %w", cfg.regionsFile, err)
	}

	var regions RegionsConfig
	if err := json.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.regionsFile, err)
	}

	cfg.cached = &regions
	return cfg.cached, nil
}

// Region returns the region with the given ID, or nil if unknown.
func (cfg *Config) Region(regionID string) (*Region, error) {
	regions, err := cfg.LoadRegions()
	if err != nil {
		return nil, err
	}
	for i := range regions.Regions {
		if regions.Regions[i].ID == regionID {
			return &regions.Regions[i], nil
		}
	}
	return nil, nil
}

// Regulation returns the source configuration for one regulation within
// a region, or nil if either is unknown.
func (cfg *Config) Regulation(regionID, regulationID string) (*RegulationSource, error) {
	region, err := cfg.Region(regionID)
	if err != nil || region == nil {
		return nil, err
	}
	for i := range region.Regulations {
		if region.Regulations[i].ID == regulationID {
			return &region.Regulations[i], nil
		}
	}
	return nil, nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (cfg *Config) EnsureDataDir() error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}
	return nil
}

// regulationNames maps regulation IDs to their full names.
var regulationNames = map[string]string{
	"gdpr":  "General Data Protection Regulation",
	"dora":  "Digital Operational Resilience Act",
	"hipaa": "Health Insurance Portability and Accountability Act",
	"ccpa":  "California Consumer Privacy Act",
	"glba":  "Gramm-Leach-Bliley Act",
	"lgpd":  "Lei Geral de Proteção de Dados",
}

// RegulationName returns the full name for a regulation ID, or the
// uppercased ID when the regulation is not in the known-names table.
func RegulationName(regulationID string) string {
	if name, known := regulationNames[regulationID]; known {
		return name
	}
	return strings.ToUpper(regulationID)
}

// DefaultRegions returns the seed registry written by the init command.
func DefaultRegions() *RegionsConfig {
	return &RegionsConfig{
		Regions: []Region{
			{
				ID:   "eu",
				Name: "European Union",
				Regulations: []RegulationSource{
					{ID: "gdpr", Sources: []string{"https://eur-lex.europa.eu/eli/reg/2016/679/oj"}},
					{ID: "dora", Sources: []string{"https://eur-lex.europa.eu/eli/reg/2022/2554/oj"}},
				},
			},
			{
				ID:   "usa",
				Name: "United States",
				Regulations: []RegulationSource{
					{ID: "hipaa", Sources: []string{
						"https://www.hhs.gov/hipaa/for-professionals/privacy/index.html",
						"https://www.hhs.gov/sites/default/files/ocr/privacy/hipaa/administrative/privacyrule/pr.pdf",
					}},
					{ID: "ccpa", Sources: []string{
						"https://oag.ca.gov/privacy/ccpa",
						"https://leginfo.legislature.ca.gov/faces/codes_displayText.xhtml?division=3.&part=4.&chapter=1.&lawCode=CIV",
					}},
					{ID: "glba", Sources: []string{
						"https://www.ftc.gov/legal-library/browse/statutes/gramm-leach-bliley-act",
						"https://www.govinfo.gov/content/pkg/PLAW-106publ102/pdf/PLAW-106publ102.pdf",
					}},
				},
			},
			{
				ID:   "brazil",
				Name: "Brazil",
				Regulations: []RegulationSource{
					{ID: "lgpd", Sources: []string{
						"https://www.gov.br/anpd/pt-br/assuntos/lei-geral-de-protecao-de-dados-lgpd",
						"https://www.planalto.gov.br/ccivil_03/_ato2015-2018/2018/lei/l13709.htm",
					}},
				},
			},
		},
	}
}

// Package writer persists regulation records to the versioned directory
// layout: one dated snapshot per ingestion run plus an active file that
// always reflects the latest successful run.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/coolbeans/lexingest/pkg/config"
	"github.com/coolbeans/lexingest/pkg/regulation"
)

// dateLayout is the ISO date stamp embedded in versioned filenames.
const dateLayout = "2006-01-02"

// Writer writes regulation documents beneath a data directory.
type Writer struct {
	dataDir string

	// Now supplies the version date stamp; overridable in tests.
	Now func() time.Time
}

// New creates a Writer rooted at dataDir, creating the directory if
// needed.
func New(dataDir string) (*Writer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Writer{dataDir: dataDir, Now: time.Now}, nil
}

// WriteDocument writes both the dated versioned file
// (<id>_<date>.json) and the active file (<id>.json) for a document
// under its region directory. Returns the two paths written.
func (writer *Writer) WriteDocument(doc *regulation.Document, regionID string) (versionedPath, activePath string, err error) {
	regionDir := filepath.Join(writer.dataDir, regionID)
	if err := os.MkdirAll(regionDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create region directory %s: %w", regionDir, err)
	}

	data, err := marshalIndented(doc)
	if err != nil {
		return "", "", err
	}

	dateStamp := writer.Now().Format(dateLayout)
	versionedPath = filepath.Join(regionDir, fmt.Sprintf("%s_%s.json", doc.ID, dateStamp))
	if err := os.WriteFile(versionedPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write versioned file %s: %w", versionedPath, err)
	}

	// The active file is a full copy, not a symlink, so the layout
	// works on filesystems without symlink support.
	activePath = filepath.Join(regionDir, doc.ID+".json")
	if err := os.WriteFile(activePath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write active file %s: %w", activePath, err)
	}

	return versionedPath, activePath, nil
}

// WriteRegions writes the regions.json registry to the data directory.
func (writer *Writer) WriteRegions(regions *config.RegionsConfig) (string, error) {
	data, err := marshalIndented(regions)
	if err != nil {
		return "", err
	}

	regionsPath := filepath.Join(writer.dataDir, "regions.json")
	if err := os.WriteFile(regionsPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", regionsPath, err)
	}
	return regionsPath, nil
}

// LatestVersion returns the path of the most recent versioned file for a
// regulation, or false when none exists. Versioned filenames sort by
// their embedded ISO date.
func (writer *Writer) LatestVersion(regionID, regulationID string) (string, bool) {
	pattern := filepath.Join(writer.dataDir, regionID, regulationID+"_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], true
}

// marshalIndented renders a value as indented JSON with a trailing
// newline.
func marshalIndented(value any) ([]byte, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

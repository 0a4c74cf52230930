// Package regulation defines the persisted data model for ingested
// regulatory documents.
package regulation

// RiskCategory classifies the compliance risk of a regulation.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskMedium   RiskCategory = "medium"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// Article is a single segmented article extracted from a regulation.
// Notes is reserved for later manual enrichment and stays empty by default.
type Article struct {
	Number  string `json:"article"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Notes   string `json:"notes,omitempty"`
}

// Document is one complete ingested regulation. It is constructed once
// per ingestion run and is immutable afterwards; the writer persists it
// as-is.
type Document struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Region            string       `json:"region"`
	RiskCategory      RiskCategory `json:"risk_category"`
	Summary           string       `json:"summary"`
	Articles          []Article    `json:"articles"`
	DeveloperGuidance []string     `json:"developer_guidance"`
}

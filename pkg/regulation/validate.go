package regulation

import (
	"fmt"
	"strings"
)

// validRiskCategories lists the accepted risk classifications.
var validRiskCategories = map[RiskCategory]bool{
	RiskLow:      true,
	RiskMedium:   true,
	RiskHigh:     true,
	RiskCritical: true,
}

// Normalize brings a document into canonical form before persistence:
// unknown or empty risk categories fall back to "high", and nil slices
// become empty so the JSON output always carries arrays.
func (doc *Document) Normalize() {
	category := RiskCategory(strings.ToLower(string(doc.RiskCategory)))
	if !validRiskCategories[category] {
		category = RiskHigh
	}
	doc.RiskCategory = category

	if doc.Articles == nil {
		doc.Articles = []Article{}
	}
	if doc.DeveloperGuidance == nil {
		doc.DeveloperGuidance = []string{}
	}
}

// Validate checks the structural invariants a document must satisfy
// before it may be written.
func (doc *Document) Validate() error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if doc.Name == "" {
		return fmt.Errorf("document name is required")
	}
	if doc.Region == "" {
		return fmt.Errorf("document region is required")
	}
	if !validRiskCategories[doc.RiskCategory] {
		return fmt.Errorf("invalid risk category %q", doc.RiskCategory)
	}
	for i, article := range doc.Articles {
		if article.Number == "" {
			return fmt.Errorf("article %d has no number", i)
		}
		if article.Title == "" {
			return fmt.Errorf("article %s has no title", article.Number)
		}
	}
	return nil
}

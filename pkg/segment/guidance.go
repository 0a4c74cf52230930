package segment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GuidanceRule maps a lowercase trigger substring to the advisory phrase
// emitted when the trigger appears anywhere in a document.
type GuidanceRule struct {
	Trigger string `yaml:"trigger" json:"trigger"`
	Advice  string `yaml:"advice" json:"advice"`
}

// defaultGuidanceRules is the built-in trigger table. Declaration order
// is the emission order.
var defaultGuidanceRules = []GuidanceRule{
	{Trigger: "encrypt", Advice: "Encrypt sensitive data"},
	{Trigger: "access control", Advice: "Enforce access control"},
	{Trigger: "minimize", Advice: "Minimize personal data storage"},
	{Trigger: "audit", Advice: "Maintain audit logs"},
	{Trigger: "consent", Advice: "Obtain proper consent"},
}

// DefaultGuidanceRules returns a copy of the built-in trigger table.
func DefaultGuidanceRules() []GuidanceRule {
	rules := make([]GuidanceRule, len(defaultGuidanceRules))
	copy(rules, defaultGuidanceRules)
	return rules
}

// TagGuidance scans text for the rule triggers and returns the matching
// advisory phrases. The search is a case-insensitive substring match over
// the whole text; each advisory appears at most once, in rule declaration
// order rather than order of appearance.
func TagGuidance(text string, rules []GuidanceRule) []string {
	lowered := strings.ToLower(text)
	emitted := make(map[string]bool)

	var advisories []string
	for _, rule := range rules {
		if rule.Trigger == "" || rule.Advice == "" {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(rule.Trigger)) {
			continue
		}
		if emitted[rule.Advice] {
			continue
		}
		emitted[rule.Advice] = true
		advisories = append(advisories, rule.Advice)
	}
	return advisories
}

// LoadGuidanceRules reads a trigger table from a YAML file. The file
// holds a list of {trigger, advice} entries whose order is preserved.
func LoadGuidanceRules(path string) ([]GuidanceRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guidance rules %s: %w", path, err)
	}

	var rules []GuidanceRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse guidance rules %s: %w", path, err)
	}

	for i, rule := range rules {
		if rule.Trigger == "" {
			return nil, fmt.Errorf("guidance rule %d has an empty trigger", i)
		}
		if rule.Advice == "" {
			return nil, fmt.Errorf("guidance rule %d (%q) has no advice", i, rule.Trigger)
		}
	}
	return rules, nil
}

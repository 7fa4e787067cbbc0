package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rule maps a category name to the keywords that indicate it.
type Rule struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// RuleSet is the categorization rule configuration.
type RuleSet struct {
	Rules []Rule `json:"rules"`
}

// DefaultRules mirrors the rule set the original app seeds on first run.
func DefaultRules() *RuleSet {
	return &RuleSet{Rules: []Rule{
		{Category: "Work", Keywords: []string{"meeting", "project", "deadline", "report", "presentation"}},
		{Category: "Bills", Keywords: []string{"invoice", "payment", "bill", "due", "subscription"}},
		{Category: "Shopping", Keywords: []string{"order", "shipped", "delivery", "purchase", "cart"}},
	}}
}

// LoadRules reads the rule configuration. Missing or unparseable rules are an
// error; a batch run cannot categorize without them.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &rs, nil
}

// Save writes the rule set back, pretty-printed.
func (rs *RuleSet) Save(path string) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize rules: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	return nil
}

// CategoryNames returns the lowercased set of rule category names. Labels in
// this set are AI-derived and get replaced on reprocessing; everything else
// is treated as a user label and preserved.
func (rs *RuleSet) CategoryNames() map[string]struct{} {
	names := make(map[string]struct{}, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.Category == "" {
			continue
		}
		names[strings.ToLower(r.Category)] = struct{}{}
	}
	return names
}

// Add appends or replaces the rule for a category (case-insensitive match).
func (rs *RuleSet) Add(rule Rule) {
	for i, r := range rs.Rules {
		if strings.EqualFold(r.Category, rule.Category) {
			rs.Rules[i] = rule
			return
		}
	}
	rs.Rules = append(rs.Rules, rule)
}

// Remove deletes the rule for a category. Returns false if no rule matched.
func (rs *RuleSet) Remove(category string) bool {
	for i, r := range rs.Rules {
		if strings.EqualFold(r.Category, category) {
			rs.Rules = append(rs.Rules[:i], rs.Rules[i+1:]...)
			return true
		}
	}
	return false
}

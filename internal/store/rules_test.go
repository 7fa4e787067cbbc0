package store

import (
	"path/filepath"
	"testing"
)

func TestRuleSetCategoryNames(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{
		{Category: "Work", Keywords: []string{"meeting"}},
		{Category: "BILLS", Keywords: []string{"invoice"}},
		{Category: "", Keywords: []string{"orphan"}},
	}}
	names := rs.CategoryNames()
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	for _, want := range []string{"work", "bills"} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing lowercased name %q", want)
		}
	}
}

func TestRuleSetAdd(t *testing.T) {
	rs := DefaultRules()
	n := len(rs.Rules)

	rs.Add(Rule{Category: "Travel", Keywords: []string{"flight"}})
	if len(rs.Rules) != n+1 {
		t.Fatalf("got %d rules, want %d", len(rs.Rules), n+1)
	}

	// Re-adding an existing category replaces it, case-insensitively.
	rs.Add(Rule{Category: "work", Keywords: []string{"standup"}})
	if len(rs.Rules) != n+1 {
		t.Errorf("got %d rules after replace, want %d", len(rs.Rules), n+1)
	}
	if rs.Rules[0].Keywords[0] != "standup" {
		t.Errorf("got keywords %v, want the replacement", rs.Rules[0].Keywords)
	}
}

func TestRuleSetRemove(t *testing.T) {
	rs := DefaultRules()
	if !rs.Remove("BILLS") {
		t.Error("case-insensitive remove failed")
	}
	if rs.Remove("bills") {
		t.Error("second remove should report no match")
	}
	if _, ok := rs.CategoryNames()["bills"]; ok {
		t.Error("removed category still present")
	}
}

func TestRulesSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.json")
	rs := DefaultRules()
	if err := rs.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Rules) != len(rs.Rules) {
		t.Fatalf("got %d rules, want %d", len(loaded.Rules), len(rs.Rules))
	}
	if loaded.Rules[0].Category != "Work" {
		t.Errorf("got category %q, want %q", loaded.Rules[0].Category, "Work")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("want an error for a missing rules file")
	}
}

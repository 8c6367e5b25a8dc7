package explore

import (
	"testing"
)

func TestBuildFacets(t *testing.T) {
	findings := []*findingRow{
		{RuleName: "AWS API Key", Categories: []string{"cloud", "aws"}, Source: "git"},
		{RuleName: "AWS API Key", Categories: []string{"cloud", "aws"}, Source: "file"},
		{RuleName: "GitHub Token", Categories: []string{"scm"}, Source: "git"},
	}

	fs := buildFacets(findings)

	// Check rule name facet
	ruleNames := fs.Values[facetRuleName]
	if len(ruleNames) != 2 {
		t.Errorf("expected 2 rule names, got %d", len(ruleNames))
	}

	// Check category facet
	cats := fs.Values[facetCategory]
	if len(cats) != 3 { // aws, cloud, scm
		t.Errorf("expected 3 categories, got %d", len(cats))
	}

	// Check source facet
	sources := fs.Values[facetSource]
	if len(sources) != 2 { // git, file
		t.Errorf("expected 2 sources, got %d", len(sources))
	}
}

func TestFacetFiltering(t *testing.T) {
	findings := []*findingRow{
		{RuleName: "AWS API Key", Categories: []string{"cloud"}, Source: "git"},
		{RuleName: "GitHub Token", Categories: []string{"scm"}, Source: "file"},
		{RuleName: "Slack Token", Categories: []string{"chat"}, Source: "git"},
	}

	fs := buildFacets(findings)

	// No filters - all match
	for _, f := range findings {
		if !fs.matchesFinding(f) {
			t.Errorf("expected %s to match with no filters", f.RuleName)
		}
	}

	// Select "git" in source facet
	for _, v := range fs.Values[facetSource] {
		if v.Value == "git" {
			v.Selected = true
		}
	}

	// Only git-sourced findings should match
	if !fs.matchesFinding(findings[0]) { // AWS - git
		t.Error("expected AWS to match git filter")
	}
	if fs.matchesFinding(findings[1]) { // GitHub - file
		t.Error("expected GitHub to NOT match git filter")
	}
	if !fs.matchesFinding(findings[2]) { // Slack - git
		t.Error("expected Slack to match git filter")
	}
}

func TestFacetReset(t *testing.T) {
	findings := []*findingRow{
		{RuleName: "Test", Categories: []string{"cat"}, Source: "git"},
	}
	fs := buildFacets(findings)

	// Select a value
	fs.Values[facetSource][0].Selected = true
	if !fs.hasActiveFilters() {
		t.Error("expected active filters after selection")
	}

	// Reset
	fs.resetAll()
	if fs.hasActiveFilters() {
		t.Error("expected no active filters after reset")
	}
}

func TestFacetCrossFacetFiltering(t *testing.T) {
	findings := []*findingRow{
		{RuleName: "AWS API Key", Categories: []string{"cloud"}, Source: "git"},
		{RuleName: "GitHub Token", Categories: []string{"cloud"}, Source: "file"},
		{RuleName: "Slack Token", Categories: []string{"chat"}, Source: "git"},
	}

	fs := buildFacets(findings)

	// Select "cloud" category AND "git" source (intersection)
	for _, v := range fs.Values[facetCategory] {
		if v.Value == "cloud" {
			v.Selected = true
		}
	}
	for _, v := range fs.Values[facetSource] {
		if v.Value == "git" {
			v.Selected = true
		}
	}

	// Only AWS should match (cloud AND git)
	if !fs.matchesFinding(findings[0]) {
		t.Error("expected AWS to match (cloud AND git)")
	}
	if fs.matchesFinding(findings[1]) {
		t.Error("expected GitHub to NOT match (cloud but file-sourced)")
	}
	if fs.matchesFinding(findings[2]) {
		t.Error("expected Slack to NOT match (git but chat, not cloud)")
	}
}

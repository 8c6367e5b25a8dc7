package rule

import (
	"strings"
	"testing"
)

// TestDropboxRule_HasNamedCaptureGroup verifies the core.dropbox.1 rule
// has a named capture group called "token" required for validation
func TestDropboxRule_HasNamedCaptureGroup(t *testing.T) {
	// Load the dropbox rule
	loader := NewLoader()
	rules, err := loader.LoadBuiltinRules()
	if err != nil {
		t.Fatalf("failed to load builtin rules: %v", err)
	}

	// Find the dropbox rule
	var dropboxPattern string
	for _, rule := range rules {
		if rule.ID == "core.dropbox.1" {
			dropboxPattern = rule.Pattern
			break
		}
	}

	if dropboxPattern == "" {
		t.Fatal("dropbox rule not found - core.dropbox.1 rule ID not found in builtin rules")
	}

	// Test that the pattern has a named capture group called "token"
	// This is required so the extracted secret is tagged rather than anonymous
	if !strings.Contains(dropboxPattern, "(?P<token>") {
		t.Errorf("dropbox rule pattern must have named capture group '(?P<token>' so the extracted secret can be stored and displayed, got pattern: %s", dropboxPattern)
	}
}

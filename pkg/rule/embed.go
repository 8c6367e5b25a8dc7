package rule

import "embed"

// builtinRulesFS embeds the built-in rules and rulesets directories.
//
//go:embed rules/*.yml rulesets/*.yml
var builtinRulesFS embed.FS

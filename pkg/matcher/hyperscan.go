//go:build !wasm && cgo && hyperscan

package matcher

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/flier/gohs/hyperscan"
	"github.com/praetorian-inc/scanforge/pkg/types"
)

// HyperscanMatcher implements Matcher using Hyperscan.
// Two-stage pipeline:
//  1. Hyperscan finds pattern offsets (fast, no capture groups)
//  2. Go regexp extracts capture groups for each match
//
// The compiled database is immutable and safe for concurrent Scan calls, but
// a hyperscan.Scratch is not: each goroutine pulls its own clone from
// scratchPool so MatchWithBlobID can run concurrently from a worker pool
// without serializing on a shared handle.
type HyperscanMatcher struct {
	db                hyperscan.BlockDatabase   // Compiled patterns
	scratch           *hyperscan.Scratch        // Template scratch, cloned per call
	scratchPool       sync.Pool
	rules             []*types.Rule             // Rule metadata indexed by pattern ID
	processedPatterns []string                  // Processed patterns ((?x) stripped) for stage 2
	regexCache        map[string]*regexp.Regexp // Built once at construction; read-only afterward
	groupNameCache    map[string][]string       // pattern -> SubexpNames(), built once at construction
	contextLines      int                       // Lines of context to extract before/after matches
}

// NewHyperscan creates a Hyperscan-based matcher.
func NewHyperscan(rules []*types.Rule, contextLines int) (*HyperscanMatcher, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}

	// Prepare patterns for Hyperscan compilation
	patterns := make([]*hyperscan.Pattern, len(rules))
	processedPatterns := make([]string, len(rules))
	regexCache := make(map[string]*regexp.Regexp, len(rules))
	groupNameCache := make(map[string][]string, len(rules))

	for i, rule := range rules {
		// Preprocess pattern to handle (?x) extended mode
		// The Hyperscan library doesn't support the Extended flag, so we strip
		// whitespace and comments from patterns that use (?x) mode.
		processedPattern := stripExtendedMode(rule.Pattern)
		processedPatterns[i] = processedPattern // Store for stage 2

		// Create pattern with flags:
		// - DotAll: . matches newlines
		// - MultiLine: ^/$ match line boundaries
		// Note: SomLeftMost (start-of-match tracking) is disabled to avoid memory issues
		// with complex patterns. We use Go regexp in stage 2 to find actual match
		// boundaries instead.
		p := hyperscan.NewPattern(processedPattern, hyperscan.DotAll|hyperscan.MultiLine)
		p.Id = i // Pattern ID = index into rules array
		patterns[i] = p

		// Compile the stage-2 regexp up front for every rule so MatchWithBlobID
		// only ever reads regexCache, never writes it — the map is then safe to
		// share across concurrent callers without a lock.
		if _, ok := regexCache[processedPattern]; !ok {
			compiled, err := regexp.Compile("(?s)" + processedPattern)
			if err != nil {
				return nil, fmt.Errorf("compiling stage-2 regexp for rule %s: %w", rule.ID, err)
			}
			regexCache[processedPattern] = compiled
			groupNameCache[processedPattern] = compiled.SubexpNames()
		}
	}

	// Compile database
	db, err := hyperscan.NewBlockDatabase(patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Hyperscan database: %w", err)
	}

	// Allocate template scratch space
	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to allocate Hyperscan scratch: %w", err)
	}

	m := &HyperscanMatcher{
		db:                db,
		scratch:           scratch,
		rules:             rules,
		processedPatterns: processedPatterns,
		regexCache:        regexCache,
		groupNameCache:    groupNameCache,
		contextLines:      contextLines,
	}
	m.scratchPool = sync.Pool{
		New: func() interface{} {
			s, err := m.scratch.Clone()
			if err != nil {
				panic(fmt.Sprintf("failed to clone hyperscan scratch: %v", err))
			}
			return s
		},
	}

	return m, nil
}

// Match scans content against all loaded rules.
func (m *HyperscanMatcher) Match(content []byte) ([]*types.Match, error) {
	// Compute BlobID for the content
	blobID := types.ComputeBlobID(content)
	return m.MatchWithBlobID(content, blobID)
}

// rawMatch holds a Hyperscan match before processing
type rawMatch struct {
	ruleIdx int
	start   int
	end     int
}

// MatchWithBlobID scans content with a known BlobID. Safe to call
// concurrently from multiple goroutines: it borrows a scratch clone from
// scratchPool and only reads the read-only regexCache built at construction.
func (m *HyperscanMatcher) MatchWithBlobID(content []byte, blobID types.BlobID) ([]*types.Match, error) {
	scratchI := m.scratchPool.Get()
	scratch := scratchI.(*hyperscan.Scratch)
	defer m.scratchPool.Put(scratch)

	// Collect raw matches from Hyperscan
	// Note: Without SomLeftMost, Hyperscan reports from=0 (inaccurate start offset)
	// Key: "ruleIdx:end" -> smallest start offset seen (longest match)
	bestMatches := make(map[string]rawMatch)

	// Define callback for Hyperscan matches
	onMatch := func(id uint, from, to uint64, flags uint, context interface{}) error {
		if int(id) >= len(m.rules) {
			return fmt.Errorf("invalid pattern ID from Hyperscan: %d", id)
		}

		start := int(from)
		end := int(to)

		// For each (rule, end) pair, keep the longest match (smallest start offset)
		// This deduplication strategy works even when start=0 (SomLeftMost disabled)
		key := fmt.Sprintf("%d:%d", id, end)
		if existing, ok := bestMatches[key]; ok {
			if start < existing.start {
				bestMatches[key] = rawMatch{ruleIdx: int(id), start: start, end: end}
			}
		} else {
			bestMatches[key] = rawMatch{ruleIdx: int(id), start: start, end: end}
		}

		return nil
	}

	// Scan with Hyperscan
	if err := m.db.Scan(content, scratch, onMatch, nil); err != nil {
		return nil, fmt.Errorf("Hyperscan scan failed: %w", err)
	}

	// Process best matches into final Match objects
	var matches []*types.Match
	dedup := NewDeduplicator()
	lm := types.NewLocationMapper(content)

	for _, raw := range bestMatches {
		rule := m.rules[raw.ruleIdx]
		processedPattern := m.processedPatterns[raw.ruleIdx]
		hyperscanStart := raw.start
		hyperscanEnd := raw.end

		// Stage 2: Extract capture groups using Go regexp
		// This also finds the actual start offset when start=0 (SomLeftMost disabled)
		// Use processedPattern (with (?x) stripped) instead of original rule.Pattern
		actualStart, actualEnd, rawCaptures, err := m.extractCapturesAndBounds(content, processedPattern, hyperscanStart, hyperscanEnd)
		if err != nil {
			// If capture extraction fails, skip this match
			continue
		}

		// Convert raw captures to Groups [][]byte (skip index 0 which is full match)
		var groups [][]byte
		if len(rawCaptures) > 1 {
			groups = rawCaptures[1:] // Skip first element (full match), keep all capture groups
		}

		namedGroups := namedGroupsFromCaptures(rawCaptures, m.groupNameCache[processedPattern])

		// Emit one Match per participating capture group (index >= 1).
		for _, gm := range expandGroupMatches(blobID, rule, actualStart, actualEnd, content, groups, namedGroups, lm, m.contextLines) {
			if !dedup.IsDuplicate(gm) {
				dedup.Add(gm)
				matches = append(matches, gm)
			}
		}
	}

	return matches, nil
}

// namedGroupsFromCaptures maps a regexp's SubexpNames() onto the raw
// submatch slice FindSubmatch/FindSubmatchIndex produced, skipping index 0
// (full match) and any unnamed group.
func namedGroupsFromCaptures(rawCaptures [][]byte, groupNames []string) map[string][]byte {
	if len(rawCaptures) == 0 || len(groupNames) == 0 {
		return nil
	}
	var named map[string][]byte
	for i, name := range groupNames {
		if i == 0 || name == "" || i >= len(rawCaptures) {
			continue
		}
		if named == nil {
			named = make(map[string][]byte)
		}
		named[name] = rawCaptures[i]
	}
	return named
}

// Close releases resources.
func (m *HyperscanMatcher) Close() error {
	// sync.Pool-held clones are reclaimed by the GC; only the template
	// scratch and database are explicitly owned.
	if m.scratch != nil {
		if err := m.scratch.Free(); err != nil {
			return fmt.Errorf("failed to free scratch: %w", err)
		}
		m.scratch = nil
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		m.db = nil
	}
	return nil
}

// extractCapturesAndBounds extracts capture groups and finds actual match boundaries.
// When start=0 (SomLeftMost disabled), it uses Go regexp to find the match near the end offset.
// Returns actualStart, actualEnd, rawCaptures slice (all groups including numbered), and error.
func (m *HyperscanMatcher) extractCapturesAndBounds(content []byte, pattern string, start, end int) (int, int, [][]byte, error) {
	re, ok := m.regexCache[pattern]
	if !ok {
		return 0, 0, nil, fmt.Errorf("no compiled regexp for pattern %q", pattern)
	}

	var actualStart, actualEnd int
	var rawCaptures [][]byte

	// If start is 0, use Go regexp to find actual match near end
	if start == 0 {
		var err error
		actualStart, actualEnd, rawCaptures, err = findMatchNearEnd(content, re, end)
		if err != nil {
			return 0, 0, nil, err
		}
	} else {
		// Use the provided start/end bounds
		actualStart = start
		actualEnd = end

		// Extract capture groups from the region
		region := content[start:end]
		rawCaptures = re.FindSubmatch(region)
		if rawCaptures == nil {
			return 0, 0, nil, fmt.Errorf("pattern did not match at specified location")
		}
	}

	// Return raw captures directly - caller will extract what it needs
	return actualStart, actualEnd, rawCaptures, nil
}

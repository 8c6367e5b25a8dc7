//go:build !wasm

package matcher

import (
	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/scanforge/pkg/types"
)

// extractCaptureGroups extracts positional capture groups from a regexp2 match.
func extractCaptureGroups(match *regexp2.Match) [][]byte {
	var groups [][]byte
	matchGroups := match.Groups()
	for i := 1; i < len(matchGroups); i++ {
		group := matchGroups[i]
		if len(group.Captures) > 0 {
			capture := group.Captures[0]
			groups = append(groups, []byte(capture.String()))
		}
	}
	return groups
}

// extractNamedGroups extracts named capture groups from a regexp2 match.
func extractNamedGroups(match *regexp2.Match, groupNames []string) map[string][]byte {
	namedGroups := make(map[string][]byte)
	for _, name := range groupNames {
		// Skip numbered groups (they show up as "0", "1", etc.)
		if name == "" || (len(name) > 0 && name[0] >= '0' && name[0] <= '9') {
			continue
		}
		group := match.GroupByName(name)
		if group != nil && len(group.Captures) > 0 {
			namedGroups[name] = []byte(group.Captures[0].String())
		}
	}
	return namedGroups
}

// buildMatchResults constructs one types.Match per participating capture
// group (§3/§4.4 step 6) from match data, translating the match's offsets
// into a source span via lm (may be nil to leave it zero-valued).
func buildMatchResults(
	blobID types.BlobID,
	rule *types.Rule,
	start, end int,
	groups [][]byte,
	namedGroups map[string][]byte,
	content []byte,
	lm *types.LocationMapper,
	contextLines int,
) []*types.Match {
	return expandGroupMatches(blobID, rule, start, end, content, groups, namedGroups, lm, contextLines)
}

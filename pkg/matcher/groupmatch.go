package matcher

import "github.com/praetorian-inc/scanforge/pkg/types"

// expandGroupMatches turns one verified raw hit into the Match records the
// spec's data model requires: one per participating capture group (§3, §4.4
// step 6), sharing the same offsets, snippet, and source span. groups is
// 0-indexed from capture group 1 (i.e. groups[0] is group index 1); a nil
// entry marks a group that did not participate and is skipped.
//
// lm may be nil, in which case the source span is left zero-valued (used by
// call sites that haven't threaded a LocationMapper through yet).
func expandGroupMatches(
	blobID types.BlobID,
	rule *types.Rule,
	start, end int,
	content []byte,
	groups [][]byte,
	namedGroups map[string][]byte,
	lm *types.LocationMapper,
	contextLines int,
) []*types.Match {
	var before, after []byte
	if contextLines > 0 {
		before, after = ExtractContext(content, start, end, contextLines)
	}

	var source types.SourceSpan
	if lm != nil {
		source = lm.Span(start, end)
	}

	matching := append([]byte{}, content[start:end]...)

	// Rules are not required to declare an explicit capture group (scenario
	// 2 of §8: `AKIA[A-Z0-9]{16}` has none yet still reports group_index=1
	// over the whole match). When the pattern captured nothing explicitly,
	// the whole match stands in as the sole, implicit group 1.
	if len(groups) == 0 {
		groups = [][]byte{matching}
	}

	out := make([]*types.Match, 0, len(groups))
	for i, g := range groups {
		if g == nil {
			continue
		}

		m := &types.Match{
			BlobID:       blobID,
			RuleID:       rule.ID,
			RuleName:     rule.Name,
			GroupIndex:   i + 1,
			MatchContent: append([]byte{}, g...),
			Location: types.Location{
				Offset: types.OffsetSpan{
					Start: int64(start),
					End:   int64(end),
				},
				Source: source,
			},
			Groups:      groups,
			NamedGroups: namedGroups,
			Snippet: types.Snippet{
				Before:   before,
				Matching: matching,
				After:    after,
			},
		}
		m.StructuralID = m.ComputeStructuralID(rule.StructuralID)
		m.FindingID = types.ComputeFindingID(rule.StructuralID, groups)

		out = append(out, m)
	}

	return out
}

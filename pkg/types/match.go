package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Match is a single detection result: one capture group of one verified hit.
// The matcher emits one Match per participating capture group (index ≥ 1) of
// a raw hit, so a single regex match with two capturing groups yields two
// Match records sharing the same offsets but distinct GroupIndex/MatchContent.
type Match struct {
	BlobID       BlobID
	StructuralID string // SHA-1(rule_structural_id, blob_id, start, end, group_index, rule_name)
	FindingID    string // SHA-1(rule_structural_id + '\0' + json(groups)) — content-based dedup ID
	RuleID       string // e.g., "core.aws.1"
	RuleName     string // e.g., "AWS API Key"
	Location     Location

	// GroupIndex is the 1-based capture group index this Match represents.
	GroupIndex int
	// MatchContent is the exact bytes captured by GroupIndex.
	MatchContent []byte

	// Groups holds every participating capture group of the raw hit this
	// Match was expanded from (positional, 0-indexed from group 1). It lets
	// Finding/validator correlation reassemble multi-group credentials (e.g.
	// an AWS access-key-id/secret-key pair from one rule) without requiring
	// the spec's per-group Match records to be re-joined at query time.
	Groups      [][]byte
	NamedGroups map[string][]byte // named capture groups from regex (?P<name>...)
	Snippet     Snippet
}

// ComputeStructuralID computes the content-based unique ID matching the
// store's match unique key (blob_id, start_byte, end_byte, group_index, rule_name).
func (m *Match) ComputeStructuralID(ruleStructuralID string) string {
	h := sha1.New()

	h.Write([]byte(ruleStructuralID))
	h.Write([]byte{0})

	h.Write(m.BlobID[:])
	h.Write([]byte{0})

	fmt.Fprintf(h, "%d", m.Location.Offset.Start)
	h.Write([]byte{0})

	fmt.Fprintf(h, "%d", m.Location.Offset.End)
	h.Write([]byte{0})

	fmt.Fprintf(h, "%d", m.GroupIndex)
	h.Write([]byte{0})

	h.Write([]byte(m.RuleName))

	return hex.EncodeToString(h.Sum(nil))
}

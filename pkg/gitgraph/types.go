package gitgraph

import "github.com/praetorian-inc/scanforge/pkg/types"

// IntroducedBlob is one (blob, path) pair first reachable at a given commit
// along the traversal path that reached it — spec §3's "introduced-blobs
// record" entry.
type IntroducedBlob struct {
	BlobID types.BlobID
	Path   string
}

// Introductions is the result of FirstIntroductions: introduced-blobs
// records indexed by the commit's ObjectIndex commit index.
type Introductions struct {
	ByCommit [][]IntroducedBlob
}

// ForCommit returns the blobs first introduced at the given commit index, or
// nil if none (including commits never visited due to a missing tree).
func (r *Introductions) ForCommit(commitIdx uint32) []IntroducedBlob {
	if int(commitIdx) >= len(r.ByCommit) {
		return nil
	}
	return r.ByCommit[commitIdx]
}

// BlobIntroduction names one commit/path pair at which a blob was first
// introduced; a blob can have more than one when it was introduced along
// multiple incomparable paths through history (spec §4.5.4).
type BlobIntroduction struct {
	CommitIdx uint32
	Path      string
}

// ByBlob inverts ByCommit into a per-blob view, the shape the Git
// enumerator needs to attach first-seen provenance to each blob it reads.
func (r *Introductions) ByBlob() map[types.BlobID][]BlobIntroduction {
	out := make(map[types.BlobID][]BlobIntroduction)
	for commitIdx, entries := range r.ByCommit {
		for _, e := range entries {
			out[e.BlobID] = append(out[e.BlobID], BlobIntroduction{
				CommitIdx: uint32(commitIdx),
				Path:      e.Path,
			})
		}
	}
	return out
}

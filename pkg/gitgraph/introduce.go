package gitgraph

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// CycleError is returned when the traversal's worklist drains before every
// commit edge has been visited, which per spec §4.5.3 signals a cycle in
// the commit DAG — a fatal, should-never-happen condition since Git commit
// graphs are acyclic by construction.
type CycleError struct {
	VisitedEdges int
	TotalEdges   int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("gitgraph: commit graph cycle detected: visited %d/%d edges", e.VisitedEdges, e.TotalEdges)
}

// introducedEntry is the pre-path-resolution form of an introduced blob,
// used in the per-commit scratch vector during tree traversal (path stays
// as interned symbols until the walk finishes, per spec's path-interning
// note in §9).
type introducedEntry struct {
	blobIdx uint32
	path    []int32
}

// FirstIntroductions runs the Kahn-style topological traversal described in
// spec §4.5.3 over the commit graph g, using s to read tree/blob objects on
// demand. It returns, for every commit, the set of (blob, path) pairs first
// reachable at that commit along the path the traversal took to reach it.
func FirstIntroductions(s storage.Storer, oi *ObjectIndex, g *CommitGraph) (*Introductions, error) {
	numCommits := g.NumNodes()
	numTrees := oi.NumTrees()
	numBlobs := oi.NumBlobs()

	seen := make(map[uint32]*SeenObjectSet, numCommits)
	introduced := make([][]IntroducedBlob, numCommits)
	visited := make([]bool, numCommits)
	remaining := make([]int32, numCommits)
	copy(remaining, g.inDegree)

	syms := newSymbolTable()

	var wl worklist
	for idx := 0; idx < numCommits; idx++ {
		if remaining[idx] == 0 {
			seen[uint32(idx)] = newSeenObjectSet(numTrees, numBlobs)
			wl.Push(worklistItem{commitIdx: uint32(idx), outDegree: g.OutDegree(uint32(idx))})
		}
	}

	visitedEdges := 0
	totalEdges := g.NumEdges()

	for wl.Len() > 0 {
		item := wl.Pop()
		cIdx := item.commitIdx

		if visited[cIdx] {
			fmt.Fprintf(os.Stderr, "[gitgraph] commit index %d popped twice, skipping\n", cIdx)
			continue
		}
		visited[cIdx] = true

		commitSeen := seen[cIdx]
		delete(seen, cIdx)
		if commitSeen == nil {
			// Can happen if a node was referenced only as a parent and never
			// reached a zero in-degree root allocation path; treat as empty.
			commitSeen = newSeenObjectSet(numTrees, numBlobs)
		}

		node := g.nodes[cIdx]
		if node.treeIndex == noTreeIndex {
			fmt.Fprintf(os.Stderr, "[gitgraph] commit index %d has no resolvable tree, skipping introduction\n", cIdx)
		} else if commitSeen.insertTree(node.treeIndex) {
			treeHash := oi.trees.at(node.treeIndex)
			tree, err := object.GetTree(s, treeHash)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[gitgraph] commit index %d: tree %s unreadable, skipping introduction: %v\n", cIdx, treeHash, err)
			} else {
				var scratch []introducedEntry
				pending := make(map[uint32]bool)
				walkTree(s, oi, tree, commitSeen, nil, syms, &scratch, pending)

				entries := make([]IntroducedBlob, 0, len(scratch))
				for _, e := range scratch {
					entries = append(entries, IntroducedBlob{
						BlobID: blobIDFromHash(oi.BlobHash(e.blobIdx)),
						Path:   syms.joinPath(e.path),
					})
					commitSeen.insertBlob(e.blobIdx)
				}
				introduced[cIdx] = entries
			}
		}

		children := g.children[cIdx]
		for i, childIdx := range children {
			visitedEdges++
			isLast := i == len(children)-1

			if existing, ok := seen[childIdx]; ok {
				existing.union(commitSeen)
			} else if isLast {
				seen[childIdx] = commitSeen
			} else {
				seen[childIdx] = cloneSeenObjectSet(commitSeen)
			}

			remaining[childIdx]--
			if remaining[childIdx] == 0 {
				wl.Push(worklistItem{commitIdx: childIdx, outDegree: g.OutDegree(childIdx)})
			}
		}
	}

	if visitedEdges != totalEdges {
		return nil, &CycleError{VisitedEdges: visitedEdges, TotalEdges: totalEdges}
	}
	for idx := 0; idx < numCommits; idx++ {
		if !visited[idx] {
			return nil, &CycleError{VisitedEdges: visitedEdges, TotalEdges: totalEdges}
		}
	}

	return &Introductions{ByCommit: introduced}, nil
}

func cloneSeenObjectSet(s *SeenObjectSet) *SeenObjectSet {
	return &SeenObjectSet{trees: s.trees.Clone(), blobs: s.blobs.Clone()}
}

func blobIDFromHash(h plumbing.Hash) types.BlobID {
	var id types.BlobID
	copy(id[:], h[:])
	return id
}

// walkTree performs the depth-first tree traversal of spec §4.5.3. Unseen
// blob entries are appended to scratch (not yet folded into seen.blobs: a
// blob repeated multiple times within one commit's tree must be introduced
// only once by that commit, which is why the fold happens after the whole
// walk completes, in the caller). Unseen subtrees recurse immediately,
// since two different paths to the same subtree within one commit still
// only need to be walked once.
func walkTree(s storage.Storer, oi *ObjectIndex, tree *object.Tree, seen *SeenObjectSet, pathStack []int32, syms *symbolTable, scratch *[]introducedEntry, pending map[uint32]bool) {
	for _, entry := range tree.Entries {
		switch entry.Mode {
		case filemode.Symlink, filemode.Submodule:
			continue
		case filemode.Dir:
			treeIdx := oi.TreeIndex(entry.Hash)
			if !seen.insertTree(treeIdx) {
				continue
			}
			subtree, err := object.GetTree(s, entry.Hash)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[gitgraph] tree entry %s/%s unreadable, skipping subtree: %v\n", tree.Hash, entry.Name, err)
				continue
			}
			childPath := append(append([]int32{}, pathStack...), syms.intern(entry.Name))
			walkTree(s, oi, subtree, seen, childPath, syms, scratch, pending)
		default:
			blobIdx := oi.BlobIndex(entry.Hash)
			// pending catches a blob appearing at two paths within this same
			// commit's tree; seen.blobs itself is only folded in after the
			// whole walk completes (see caller), so it alone wouldn't catch
			// this case.
			if seen.hasBlob(blobIdx) || pending[blobIdx] {
				continue
			}
			pending[blobIdx] = true
			full := append(append([]int32{}, pathStack...), syms.intern(entry.Name))
			*scratch = append(*scratch, introducedEntry{blobIdx: blobIdx, path: full})
		}
	}
}

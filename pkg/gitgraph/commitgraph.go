package gitgraph

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
)

// noTreeIndex marks a commit node whose tree index is not (yet, or ever)
// known — either because the parent commit hasn't been visited during
// construction, or because its tree object is missing/corrupt.
const noTreeIndex = ^uint32(0)

// commitNode is one node of the inverted commit DAG: the commit's object id
// plus its root tree index, if known.
type commitNode struct {
	treeIndex uint32 // noTreeIndex if unresolved
}

// CommitGraph is the inverted commit DAG described in spec §4.5.2: edges run
// from parent to child (opposite of Git's native parent-pointer direction),
// so that a topological traversal can walk forward from roots to leaves.
// Nodes are addressed by the commit's ObjectIndex index; this keeps the
// graph a handful of contiguous slices instead of a pointer-linked
// structure, per the arena-with-indices pattern.
type CommitGraph struct {
	nodes []commitNode
	// children[i] holds the indices of commits that are children of commit i.
	// Parallel parent entries pointing at the same child produce duplicate
	// entries here, which is tolerated (spec §4.5.2).
	children [][]uint32
	// inDegree[i] counts edges into commit i; used to seed/advance the
	// topological worklist.
	inDegree []int32
}

func (g *CommitGraph) ensureNode(idx uint32) {
	for uint32(len(g.nodes)) <= idx {
		g.nodes = append(g.nodes, commitNode{treeIndex: noTreeIndex})
		g.children = append(g.children, nil)
		g.inDegree = append(g.inDegree, 0)
	}
}

// NumNodes returns the number of distinct commits in the graph.
func (g *CommitGraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the total number of parent->child edges, including
// duplicates from parallel edges.
func (g *CommitGraph) NumEdges() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// OutDegree returns the number of children of commit index idx.
func (g *CommitGraph) OutDegree(idx uint32) int { return len(g.children[idx]) }

// BuildCommitGraph walks every commit object in the repository (as indexed
// by oi) and builds the inverted DAG per spec §4.5.2: for each commit,
// resolve its tree index, then for each parent create/update a node and add
// a parent->child edge.
func BuildCommitGraph(s storage.Storer, oi *ObjectIndex) (*CommitGraph, error) {
	g := &CommitGraph{}

	iter, err := s.IterEncodedObjects(plumbing.CommitObject)
	if err != nil {
		return nil, fmt.Errorf("gitgraph: iterating commits: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(enc plumbing.EncodedObject) error {
		commit, decodeErr := object.DecodeCommit(s, enc)
		if decodeErr != nil {
			// A corrupt commit object is a per-entry recoverable error: the
			// graph proceeds without it, and any descendant that names it
			// as a parent simply gets an unresolved-tree node for it.
			return nil
		}

		cIdx, ok := oi.LookupCommitIndex(commit.Hash)
		if !ok {
			cIdx = oi.CommitIndex(commit.Hash)
		}
		g.ensureNode(cIdx)

		treeIdx := noTreeIndex
		if idx, ok := oi.LookupTreeIndex(commit.TreeHash); ok {
			treeIdx = idx
		} else {
			treeIdx = oi.TreeIndex(commit.TreeHash)
		}
		g.nodes[cIdx].treeIndex = treeIdx

		for _, parentHash := range commit.ParentHashes {
			pIdx, ok := oi.LookupCommitIndex(parentHash)
			if !ok {
				pIdx = oi.CommitIndex(parentHash)
			}
			g.ensureNode(pIdx)

			g.children[pIdx] = append(g.children[pIdx], cIdx)
			g.inDegree[cIdx]++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitgraph: building commit graph: %w", err)
	}

	return g, nil
}

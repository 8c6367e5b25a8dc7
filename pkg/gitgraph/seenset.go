package gitgraph

import "github.com/bits-and-blooms/bitset"

// SeenObjectSet is a pair of bitmaps over the tree index space and the blob
// index space, representing the union of all trees and blobs known reachable
// from some already-processed ancestor along the traversal order used by
// FirstIntroductions.
type SeenObjectSet struct {
	trees *bitset.BitSet
	blobs *bitset.BitSet
}

// newSeenObjectSet allocates empty bitmaps sized to the given index spaces.
func newSeenObjectSet(numTrees, numBlobs int) *SeenObjectSet {
	return &SeenObjectSet{
		trees: bitset.New(uint(numTrees)),
		blobs: bitset.New(uint(numBlobs)),
	}
}

// insertTree marks tree index idx as seen, returning true if it was
// previously absent.
func (s *SeenObjectSet) insertTree(idx uint32) bool {
	if s.trees.Test(uint(idx)) {
		return false
	}
	s.trees.Set(uint(idx))
	return true
}

// hasBlob reports whether blob index idx is already seen.
func (s *SeenObjectSet) hasBlob(idx uint32) bool {
	return s.blobs.Test(uint(idx))
}

// insertBlob marks blob index idx as seen.
func (s *SeenObjectSet) insertBlob(idx uint32) {
	s.blobs.Set(uint(idx))
}

// union folds other's bits into s in place.
func (s *SeenObjectSet) union(other *SeenObjectSet) {
	s.trees.InPlaceUnion(other.trees)
	s.blobs.InPlaceUnion(other.blobs)
}

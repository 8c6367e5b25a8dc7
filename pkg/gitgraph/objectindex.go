// Package gitgraph builds an in-memory commit DAG over a Git repository and
// computes, for every blob reachable from any commit, the earliest commit(s)
// that introduced it and the path(s) under which it first appeared.
package gitgraph

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
)

// ObjectIndex holds bidirectional maps between Git object ids and compact
// 32-bit indices, partitioned by object kind. Indices are dense and stable
// for the lifetime of the index; they exist so the rest of gitgraph can use
// plain slices and bitsets instead of hash-keyed maps.
type ObjectIndex struct {
	commits partition
	trees   partition
	blobs   partition
	tags    partition
}

// partition is one kind's bidirectional id<->index map.
type partition struct {
	ids     []plumbing.Hash
	indices map[plumbing.Hash]uint32
}

func newPartition(capacity int) partition {
	return partition{
		ids:     make([]plumbing.Hash, 0, capacity),
		indices: make(map[plumbing.Hash]uint32, capacity),
	}
}

func (p *partition) insert(h plumbing.Hash) uint32 {
	if idx, ok := p.indices[h]; ok {
		return idx
	}
	idx := uint32(len(p.ids))
	p.ids = append(p.ids, h)
	p.indices[h] = idx
	return idx
}

func (p *partition) lookup(h plumbing.Hash) (uint32, bool) {
	idx, ok := p.indices[h]
	return idx, ok
}

func (p *partition) at(idx uint32) plumbing.Hash {
	return p.ids[idx]
}

func (p *partition) len() int {
	return len(p.ids)
}

// CommitIndex returns the compact index for a commit object id, inserting it
// if this is the first time it's been seen.
func (oi *ObjectIndex) CommitIndex(h plumbing.Hash) uint32 { return oi.commits.insert(h) }

// LookupCommitIndex returns the compact index for a commit object id without
// inserting it.
func (oi *ObjectIndex) LookupCommitIndex(h plumbing.Hash) (uint32, bool) { return oi.commits.lookup(h) }

// CommitHash returns the object id for a compact commit index.
func (oi *ObjectIndex) CommitHash(idx uint32) plumbing.Hash { return oi.commits.at(idx) }

// NumCommits returns the number of distinct commit objects indexed.
func (oi *ObjectIndex) NumCommits() int { return oi.commits.len() }

// TreeIndex returns the compact index for a tree object id, inserting it if
// necessary.
func (oi *ObjectIndex) TreeIndex(h plumbing.Hash) uint32 { return oi.trees.insert(h) }

// LookupTreeIndex returns the compact index for a tree object id without
// inserting it.
func (oi *ObjectIndex) LookupTreeIndex(h plumbing.Hash) (uint32, bool) { return oi.trees.lookup(h) }

// NumTrees returns the number of distinct tree objects indexed.
func (oi *ObjectIndex) NumTrees() int { return oi.trees.len() }

// BlobIndex returns the compact index for a blob object id, inserting it if
// necessary.
func (oi *ObjectIndex) BlobIndex(h plumbing.Hash) uint32 { return oi.blobs.insert(h) }

// LookupBlobIndex returns the compact index for a blob object id without
// inserting it.
func (oi *ObjectIndex) LookupBlobIndex(h plumbing.Hash) (uint32, bool) { return oi.blobs.lookup(h) }

// BlobHash returns the object id for a compact blob index.
func (oi *ObjectIndex) BlobHash(idx uint32) plumbing.Hash { return oi.blobs.at(idx) }

// NumBlobs returns the number of distinct blob objects indexed.
func (oi *ObjectIndex) NumBlobs() int { return oi.blobs.len() }

// TagIndex returns the compact index for a tag object id, inserting it if
// necessary.
func (oi *ObjectIndex) TagIndex(h plumbing.Hash) uint32 { return oi.tags.insert(h) }

// NumTags returns the number of distinct tag objects indexed.
func (oi *ObjectIndex) NumTags() int { return oi.tags.len() }

// BuildObjectIndex performs the two-pass indexing described in spec §4.5.1:
// a counting pass to size the partitions exactly, then an insertion pass in
// the storer's natural iteration order (ascending pack offset for packed
// repositories), which is the order that gives the best read locality for
// the access patterns in this package.
func BuildObjectIndex(s storage.Storer) (*ObjectIndex, error) {
	counts, err := countObjects(s)
	if err != nil {
		return nil, fmt.Errorf("gitgraph: counting objects: %w", err)
	}

	oi := &ObjectIndex{
		commits: newPartition(counts[plumbing.CommitObject]),
		trees:   newPartition(counts[plumbing.TreeObject]),
		blobs:   newPartition(counts[plumbing.BlobObject]),
		tags:    newPartition(counts[plumbing.TagObject]),
	}

	iter, err := s.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, fmt.Errorf("gitgraph: iterating objects: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		switch obj.Type() {
		case plumbing.CommitObject:
			oi.commits.insert(obj.Hash())
		case plumbing.TreeObject:
			oi.trees.insert(obj.Hash())
		case plumbing.BlobObject:
			oi.blobs.insert(obj.Hash())
		case plumbing.TagObject:
			oi.tags.insert(obj.Hash())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitgraph: indexing objects: %w", err)
	}

	return oi, nil
}

func countObjects(s storage.Storer) (map[plumbing.ObjectType]int, error) {
	counts := make(map[plumbing.ObjectType]int, 4)

	iter, err := s.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		counts[obj.Type()]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

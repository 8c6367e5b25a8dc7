package gitgraph

import (
	"testing"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// TestFirstIntroductions_AddModifyRevert covers spec §8 end-to-end scenario
// 4: commit A adds foo/secret, commit B changes its content, commit C
// reverts to A's content. A's blob must be introduced only at A, B's blob
// only at B, and C introduces nothing.
func TestFirstIntroductions_AddModifyRevert(t *testing.T) {
	dir := initRepo(t)

	contentA := "secret-version-A\n"
	contentB := "secret-version-B\n"

	hashA := writeAndCommit(t, dir, "add secret", map[string]string{"foo/secret": contentA})
	writeAndCommit(t, dir, "modify secret", map[string]string{"foo/secret": contentB})
	hashC := writeAndCommit(t, dir, "revert secret", map[string]string{"foo/secret": contentA})

	repo := openRepo(t, dir)
	result, err := ComputeFromRepository(repo)
	if err != nil {
		t.Fatalf("ComputeFromRepository: %v", err)
	}

	blobA := types.ComputeBlobID([]byte(contentA))
	blobB := types.ComputeBlobID([]byte(contentB))

	commitIdxA, ok := result.Index.LookupCommitIndex(hashToPlumbing(t, hashA))
	if !ok {
		t.Fatalf("commit A not indexed")
	}
	commitIdxC, ok := result.Index.LookupCommitIndex(hashToPlumbing(t, hashC))
	if !ok {
		t.Fatalf("commit C not indexed")
	}

	introsA := result.Introductions.ForCommit(commitIdxA)
	if !containsBlob(introsA, blobA, "foo/secret") {
		t.Errorf("expected commit A to introduce foo/secret (blob A), got %+v", introsA)
	}

	introsC := result.Introductions.ForCommit(commitIdxC)
	if len(introsC) != 0 {
		t.Errorf("expected commit C to introduce nothing, got %+v", introsC)
	}

	// blobB must be introduced exactly once, and not at A or C.
	found := 0
	for idx := 0; idx < result.Index.NumCommits(); idx++ {
		for _, ib := range result.Introductions.ForCommit(uint32(idx)) {
			if ib.BlobID == blobB {
				found++
				if uint32(idx) == commitIdxA || uint32(idx) == commitIdxC {
					t.Errorf("blob B introduced at wrong commit index %d", idx)
				}
			}
		}
	}
	if found != 1 {
		t.Errorf("expected blob B introduced exactly once, got %d", found)
	}
}

// TestFirstIntroductions_DuplicatePathWithinCommit ensures a blob that
// appears at two paths in the same commit is recorded as introduced only
// once by that commit (spec §4.5.3 tree-traversal note).
func TestFirstIntroductions_DuplicatePathWithinCommit(t *testing.T) {
	dir := initRepo(t)
	content := "shared-content\n"
	hash := writeAndCommit(t, dir, "add dup", map[string]string{
		"a/file.txt": content,
		"b/file.txt": content,
	})

	repo := openRepo(t, dir)
	result, err := ComputeFromRepository(repo)
	if err != nil {
		t.Fatalf("ComputeFromRepository: %v", err)
	}

	commitIdx, ok := result.Index.LookupCommitIndex(hashToPlumbing(t, hash))
	if !ok {
		t.Fatalf("commit not indexed")
	}

	blobID := types.ComputeBlobID([]byte(content))
	count := 0
	for _, ib := range result.Introductions.ForCommit(commitIdx) {
		if ib.BlobID == blobID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected blob introduced exactly once within commit, got %d", count)
	}
}

// TestFirstIntroductions_LinearHistoryVisitsAllEdges is invariant 4 of
// spec §8: the traversal visits exactly C commits and E edges.
func TestFirstIntroductions_LinearHistoryVisitsAllEdges(t *testing.T) {
	dir := initRepo(t)
	writeAndCommit(t, dir, "c1", map[string]string{"f1.txt": "one"})
	writeAndCommit(t, dir, "c2", map[string]string{"f2.txt": "two"})
	writeAndCommit(t, dir, "c3", map[string]string{"f3.txt": "three"})

	repo := openRepo(t, dir)
	index, err := BuildObjectIndex(repo.Storer)
	if err != nil {
		t.Fatalf("BuildObjectIndex: %v", err)
	}
	graph, err := BuildCommitGraph(repo.Storer, index)
	if err != nil {
		t.Fatalf("BuildCommitGraph: %v", err)
	}

	if graph.NumNodes() != 3 {
		t.Errorf("expected 3 commit nodes, got %d", graph.NumNodes())
	}
	if graph.NumEdges() != 2 {
		t.Errorf("expected 2 edges, got %d", graph.NumEdges())
	}

	if _, err := FirstIntroductions(repo.Storer, index, graph); err != nil {
		t.Errorf("FirstIntroductions: %v", err)
	}
}

func containsBlob(entries []IntroducedBlob, id types.BlobID, path string) bool {
	for _, e := range entries {
		if e.BlobID == id && e.Path == path {
			return true
		}
	}
	return false
}

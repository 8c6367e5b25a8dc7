package types

import "testing"

func TestProvenanceSet_CollapsesLessSpecificGitRepo(t *testing.T) {
	s := NewProvenanceSet(
		GitProvenance{RepoPath: "/r", Commit: nil, BlobPath: ""},
	)
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}

	s.Add(GitProvenance{RepoPath: "/r", Commit: &CommitMetadata{CommitID: "abc"}, BlobPath: "foo"})

	if s.Len() != 1 {
		t.Fatalf("expected the commit-less entry to be collapsed, got %d entries: %+v", s.Len(), s.Entries())
	}
	gp, ok := s.Entries()[0].(GitProvenance)
	if !ok || gp.Commit == nil || gp.Commit.CommitID != "abc" {
		t.Fatalf("expected surviving entry to be the specific one, got %+v", s.Entries()[0])
	}
}

func TestProvenanceSet_SpecificEntryBlocksLaterLessSpecific(t *testing.T) {
	s := NewProvenanceSet(
		GitProvenance{RepoPath: "/r", Commit: &CommitMetadata{CommitID: "abc"}, BlobPath: "foo"},
	)
	s.Add(GitProvenance{RepoPath: "/r", Commit: nil, BlobPath: ""})

	if s.Len() != 1 {
		t.Fatalf("expected commit-less entry to be rejected, got %d entries", s.Len())
	}
}

func TestProvenanceSet_DistinctReposCoexist(t *testing.T) {
	s := NewProvenanceSet(
		GitProvenance{RepoPath: "/r1", Commit: &CommitMetadata{CommitID: "a"}, BlobPath: "x"},
		GitProvenance{RepoPath: "/r2", Commit: nil},
	)
	if s.Len() != 2 {
		t.Fatalf("expected entries for distinct repos to coexist, got %d", s.Len())
	}
}

func TestProvenanceSet_MultipleFirstCommitsForSameRepoBothKept(t *testing.T) {
	// A blob introduced at two incomparable commits in the same repo keeps
	// both specific entries; the invariant only collapses commit-less ones.
	s := NewProvenanceSet(
		GitProvenance{RepoPath: "/r", Commit: &CommitMetadata{CommitID: "a"}, BlobPath: "x"},
		GitProvenance{RepoPath: "/r", Commit: &CommitMetadata{CommitID: "b"}, BlobPath: "y"},
	)
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", s.Len(), s.Entries())
	}
}

func TestProvenanceSet_FileProvenanceUnaffected(t *testing.T) {
	s := NewProvenanceSet(
		FileProvenance{FilePath: "/a/b.txt"},
		GitProvenance{RepoPath: "/r", Commit: nil},
	)
	if s.Len() != 2 {
		t.Fatalf("expected both entries kept, got %d", s.Len())
	}
}

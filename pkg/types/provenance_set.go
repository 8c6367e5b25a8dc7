package types

// ProvenanceSet is a non-empty set of provenance entries attached to a
// blob (spec §3). It is a tagged-union set, not a flattened union of
// optional fields: GitRepo entries for the same repo carry or omit
// first-commit information, and the set enforces the §3 invariant that a
// more-specific GitRepo{repo, first_commit=Some(_)} entry supersedes any
// less-specific GitRepo{repo, first_commit=None} entry for that same repo.
type ProvenanceSet struct {
	entries []Provenance
}

// NewProvenanceSet builds a ProvenanceSet from zero or more entries,
// applying the collapsing invariant as it goes.
func NewProvenanceSet(entries ...Provenance) *ProvenanceSet {
	s := &ProvenanceSet{}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts a provenance entry, collapsing less-specific GitRepo entries
// for the same repo path when a first-commit-bearing entry is present.
func (s *ProvenanceSet) Add(p Provenance) {
	gp, isGit := p.(GitProvenance)
	if !isGit || gp.Commit == nil {
		// File, Extended, or commit-less GitRepo entries: only drop this
		// entry if a more-specific one for the same repo already exists.
		if isGit && s.hasSpecificGitRepo(gp.RepoPath) {
			return
		}
		s.entries = append(s.entries, p)
		return
	}

	// Adding a first-commit-bearing GitRepo entry: drop any existing
	// commit-less entries for the same repo, then append.
	filtered := s.entries[:0:0]
	for _, existing := range s.entries {
		if eg, ok := existing.(GitProvenance); ok && eg.RepoPath == gp.RepoPath && eg.Commit == nil {
			continue
		}
		filtered = append(filtered, existing)
	}
	s.entries = append(filtered, p)
}

func (s *ProvenanceSet) hasSpecificGitRepo(repoPath string) bool {
	for _, existing := range s.entries {
		if eg, ok := existing.(GitProvenance); ok && eg.RepoPath == repoPath && eg.Commit != nil {
			return true
		}
	}
	return false
}

// Entries returns the set's current members. The returned slice must not
// be mutated by the caller.
func (s *ProvenanceSet) Entries() []Provenance {
	return s.entries
}

// Len returns the number of entries currently in the set.
func (s *ProvenanceSet) Len() int {
	return len(s.entries)
}

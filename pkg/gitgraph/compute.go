package gitgraph

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Result bundles the object index and first-introduction records computed
// for one repository; it is the thing callers outside this package hold on
// to (the CommitGraph itself is dropped once FirstIntroductions returns,
// per spec §9's "ownership of the commit graph" note).
type Result struct {
	Index         *ObjectIndex
	Introductions *Introductions
}

// CommitID returns the hex object id of the commit at the given index.
func (r *Result) CommitID(idx uint32) string {
	return r.Index.CommitHash(idx).String()
}

// Compute opens the Git repository at repoPath and runs the full §4.5
// pipeline: build the object index, build the inverted commit graph, then
// compute first-introductions. The commit graph itself is not retained.
func Compute(repoPath string) (*Result, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("gitgraph: opening repository: %w", err)
	}
	return ComputeFromRepository(repo)
}

// ComputeFromRepository runs the §4.5 pipeline against an already-open
// go-git repository.
func ComputeFromRepository(repo *git.Repository) (*Result, error) {
	storer := repo.Storer

	index, err := BuildObjectIndex(storer)
	if err != nil {
		return nil, err
	}

	graph, err := BuildCommitGraph(storer, index)
	if err != nil {
		return nil, err
	}

	introductions, err := FirstIntroductions(storer, index, graph)
	if err != nil {
		return nil, fmt.Errorf("gitgraph: %w", err)
	}

	return &Result{Index: index, Introductions: introductions}, nil
}

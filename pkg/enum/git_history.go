package enum

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"

	"github.com/praetorian-inc/scanforge/pkg/gitgraph"
	"github.com/praetorian-inc/scanforge/pkg/types"
)

// enumerateAllHistory is the WalkAll entry point. When CollectIntroductions
// is set it computes first-introduction records via pkg/gitgraph and
// attaches commit provenance to every blob; per spec §4.5.4's "degraded
// mode", a failure in that computation falls back to the flat native walk
// (no commit metadata) rather than failing the whole scan.
func (e *GitEnumerator) enumerateAllHistory(ctx context.Context, callback func(content []byte, blobID types.BlobID, prov types.Provenance) error) error {
	if !e.CollectIntroductions {
		return e.enumerateAllHistoryNative(ctx, callback)
	}

	err := e.enumerateAllHistoryWithIntroductions(ctx, callback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[enum] git metadata graph computation failed for %s, falling back to flat history walk: %v\n", e.config.Root, err)
		return e.enumerateAllHistoryNative(ctx, callback)
	}
	return nil
}

// enumerateAllHistoryWithIntroductions uses go-git + pkg/gitgraph to walk
// the full commit history, emitting each blob once per commit where it was
// first introduced (spec §4.5, §4.6's GitRepo{blobs: [...first_seen]}
// shape, realized here as one provenance-bearing callback per introduction).
func (e *GitEnumerator) enumerateAllHistoryWithIntroductions(ctx context.Context, callback func(content []byte, blobID types.BlobID, prov types.Provenance) error) error {
	repo, err := git.PlainOpen(e.config.Root)
	if err != nil {
		return fmt.Errorf("opening git repository: %w", err)
	}

	result, err := gitgraph.ComputeFromRepository(repo)
	if err != nil {
		return fmt.Errorf("computing commit metadata graph: %w", err)
	}

	byBlob := result.Introductions.ByBlob()

	commitMetaCache := make(map[uint32]*types.CommitMetadata, result.Index.NumCommits())
	commitMeta := func(idx uint32) (*types.CommitMetadata, error) {
		if m, ok := commitMetaCache[idx]; ok {
			return m, nil
		}
		commit, err := repo.CommitObject(result.Index.CommitHash(idx))
		if err != nil {
			return nil, err
		}
		m := &types.CommitMetadata{
			CommitID:           commit.Hash.String(),
			AuthorName:         commit.Author.Name,
			AuthorEmail:        commit.Author.Email,
			AuthorTimestamp:    commit.Author.When,
			CommitterName:      commit.Committer.Name,
			CommitterEmail:     commit.Committer.Email,
			CommitterTimestamp: commit.Committer.When,
			Message:            commit.Message,
		}
		commitMetaCache[idx] = m
		return m, nil
	}

	for blobIdx := 0; blobIdx < result.Index.NumBlobs(); blobIdx++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hash := result.Index.BlobHash(uint32(blobIdx))
		var blobID types.BlobID
		copy(blobID[:], hash[:])

		introductions := byBlob[blobID]
		if len(introductions) == 0 {
			// Not reachable from any commit's tree along the traversal
			// (e.g. orphaned blob, or its introducing commit's tree was
			// unreadable) — nothing to attach provenance to.
			continue
		}

		blob, err := repo.BlobObject(hash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[enum] blob %s unreadable, skipping: %v\n", hash, err)
			continue
		}
		if e.config.MaxFileSize > 0 && blob.Size > e.config.MaxFileSize {
			continue
		}

		reader, err := blob.Reader()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[enum] blob %s unreadable, skipping: %v\n", hash, err)
			continue
		}
		content, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[enum] blob %s read failed, skipping: %v\n", hash, err)
			continue
		}

		if isBinary(content) {
			continue
		}

		for _, intro := range introductions {
			meta, err := commitMeta(intro.CommitIdx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[enum] commit for blob %s unreadable, skipping provenance entry: %v\n", hash, err)
				continue
			}

			prov := types.GitProvenance{
				RepoPath: e.config.Root,
				Commit:   meta,
				BlobPath: intro.Path,
			}

			if err := callback(content, blobID, prov); err != nil {
				return err
			}
		}
	}

	return nil
}

// Package pipeline wires an enumerator, a matcher, and a store together as
// a bounded-channel producer/consumer topology: one enumerator goroutine,
// a worker pool that matches blobs, and a single writer goroutine that
// serializes results into the store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/scanforge/pkg/enum"
	"github.com/praetorian-inc/scanforge/pkg/matcher"
	"github.com/praetorian-inc/scanforge/pkg/store"
	"github.com/praetorian-inc/scanforge/pkg/types"
)

// inputRecord is one blob handed from the enumerator to a matcher worker.
type inputRecord struct {
	content []byte
	blobID  types.BlobID
	prov    types.Provenance
}

// outputRecord is one matched (or incrementally-skipped) blob handed from
// a worker to the writer.
type outputRecord struct {
	blobID  types.BlobID
	size    int64
	prov    types.Provenance
	matches []*types.Match
}

// Stats summarizes a completed run.
type Stats struct {
	BlobsScanned int
	BlobsSkipped int
	BlobsDeduped int // blobs seen more than once within this run (§4.1, §8 invariant 1)
	TotalBytes   int64
	MatchCount   int
	NewFindings  int
}

// Config controls pipeline parallelism and batching.
type Config struct {
	// NumWorkers is the size of the matcher worker pool. Defaults to
	// runtime.NumCPU() when zero or negative.
	NumWorkers int

	// Incremental, when set, skips blobs already present in the store
	// instead of matching them again.
	Incremental bool

	// OnBlob, when set, is called once per blob a worker reads, before
	// matching. Used to mirror scanned content into a content-addressable
	// blob store (see pkg/datastore) without coupling this package to it.
	// Errors are logged and otherwise ignored; blob storage is best-effort.
	OnBlob func(blobID types.BlobID, content []byte) error
}

// RuleStats accumulates per-rule finding/match counts for summary output.
type RuleStats struct {
	mu     sync.Mutex
	counts map[string]*ruleCount
}

type ruleCount struct {
	FindingCount int
	MatchCount   int
}

// NewRuleStats builds a RuleStats seeded with zero counts for every rule.
func NewRuleStats(rules []*types.Rule) *RuleStats {
	rs := &RuleStats{counts: make(map[string]*ruleCount, len(rules))}
	for _, r := range rules {
		rs.counts[r.ID] = &ruleCount{}
	}
	return rs
}

func (rs *RuleStats) recordMatch(ruleID string, isNewFinding bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	c, ok := rs.counts[ruleID]
	if !ok {
		c = &ruleCount{}
		rs.counts[ruleID] = c
	}
	c.MatchCount++
	if isNewFinding {
		c.FindingCount++
	}
}

// Snapshot returns a stable copy of the per-rule counts, keyed by rule ID.
func (rs *RuleStats) Snapshot() map[string]RuleCount {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]RuleCount, len(rs.counts))
	for id, c := range rs.counts {
		out[id] = RuleCount{FindingCount: c.FindingCount, MatchCount: c.MatchCount}
	}
	return out
}

// RuleCount is an immutable snapshot of one rule's accumulated counts.
type RuleCount struct {
	FindingCount int
	MatchCount   int
}

// Run drives the enumerator → worker pool → writer topology described by
// the scan pipeline design: the enumerator feeds a bounded input channel,
// a pool of matcher workers drains it and produces match records onto a
// bounded output channel, and a single writer goroutine serializes those
// records into the store. Closing either channel (via the enumerator
// finishing, or ctx cancellation) drains the stages downstream of it in
// order; Run returns the first error encountered by any stage.
//
// Each worker calls the Matcher directly with no pipeline-level locking:
// Matcher implementations clone their scratch space per call (see
// HyperscanMatcher and VectorscanMatcher), so match calls run fully
// concurrently across workers, as do blob reads (already done by the
// enumerator) and the downstream store writes.
func Run(ctx context.Context, e enum.Enumerator, m matcher.Matcher, s store.Store, ruleStats *RuleStats, cfg Config) (Stats, error) {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	chanCap := numWorkers * 32
	if chanCap < 256 {
		chanCap = 256
	}

	inputChan := make(chan inputRecord, chanCap)
	outputChan := make(chan outputRecord, chanCap)

	var (
		totalBytes   int64
		blobsScanned int64
		blobsSkipped int64
		blobsDeduped int64
		matchCount   int64
		newFindings  int64
	)

	// Within-run blob dedup (§4.1, §4.4): a blob observed more than once in
	// this run is matched at most once; later sightings just learn the
	// outcome of the first. Distinct from cfg.Incremental, which skips blobs
	// already recorded by a *prior* run.
	seenBlobs := matcher.NewSeenBlobMap()

	g, gctx := errgroup.WithContext(ctx)

	// Enumerator stage: runs the enumerator, feeding input_chan.
	g.Go(func() error {
		defer close(inputChan)
		err := e.Enumerate(gctx, func(content []byte, blobID types.BlobID, prov types.Provenance) error {
			select {
			case inputChan <- inputRecord{content: content, blobID: blobID, prov: prov}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil {
			return fmt.Errorf("enumerating inputs: %w", err)
		}
		return nil
	})

	// Worker pool stage: matches blobs and forwards results to the
	// writer. Workers close their shared send-handle (via the
	// WaitGroup below) once input_chan is drained.
	g.Go(func() error {
		var wg sync.WaitGroup
		workerErrs := make(chan error, numWorkers)

		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for rec := range inputChan {
					atomic.AddInt64(&totalBytes, int64(len(rec.content)))
					atomic.AddInt64(&blobsScanned, 1)

					if cfg.Incremental {
						exists, err := s.BlobExists(rec.blobID)
						if err != nil {
							workerErrs <- fmt.Errorf("checking blob %s: %w", rec.blobID.Hex(), err)
							return
						}
						if exists {
							atomic.AddInt64(&blobsSkipped, 1)
							continue
						}
					}

					if cfg.OnBlob != nil {
						if err := cfg.OnBlob(rec.blobID, rec.content); err != nil {
							fmt.Fprintf(os.Stderr, "[pipeline] storing blob %s failed: %v\n", rec.blobID.Hex(), err)
						}
					}

					result, err := matcher.ScanBlob(m, seenBlobs, rec.content, rec.blobID)
					if err != nil {
						// Per-blob recoverable: log and continue.
						fmt.Fprintf(os.Stderr, "[pipeline] matching blob %s failed, skipping: %v\n", rec.blobID.Hex(), err)
						continue
					}
					if result.Outcome != matcher.NewBlob {
						atomic.AddInt64(&blobsDeduped, 1)
					}

					// Provenance is recorded for every sighting of a blob
					// (a second copy of an already-seen blob still needs its
					// own blob_provenance row, per §4.8's write protocol),
					// but matches are only ever produced by the first.
					out := outputRecord{
						blobID:  rec.blobID,
						size:    int64(len(rec.content)),
						prov:    rec.prov,
						matches: result.Matches,
					}
					select {
					case outputChan <- out:
					case <-gctx.Done():
						return
					}
				}
			}()
		}

		wg.Wait()
		close(outputChan)
		close(workerErrs)
		for err := range workerErrs {
			if err != nil {
				return err
			}
		}
		return nil
	})

	// Writer stage: the sole consumer of output_chan, serializing
	// blob/provenance/match/finding records into the store.
	g.Go(func() error {
		for rec := range outputChan {
			if err := s.AddBlob(rec.blobID, rec.size); err != nil {
				return fmt.Errorf("storing blob %s: %w", rec.blobID.Hex(), err)
			}
			if err := s.AddProvenance(rec.blobID, rec.prov); err != nil {
				return fmt.Errorf("storing provenance for blob %s: %w", rec.blobID.Hex(), err)
			}

			for _, match := range rec.matches {
				if err := s.AddMatch(match); err != nil {
					return fmt.Errorf("storing match: %w", err)
				}
				atomic.AddInt64(&matchCount, 1)

				exists, err := s.FindingExists(match.StructuralID)
				if err != nil {
					return fmt.Errorf("checking finding: %w", err)
				}
				isNew := !exists
				if isNew {
					finding := &types.Finding{
						ID:     match.StructuralID,
						RuleID: match.RuleID,
						Groups: match.Groups,
					}
					if err := s.AddFinding(finding); err != nil {
						return fmt.Errorf("storing finding: %w", err)
					}
					atomic.AddInt64(&newFindings, 1)
				}

				if ruleStats != nil {
					ruleStats.recordMatch(match.RuleID, isNew)
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	return Stats{
		BlobsScanned: int(atomic.LoadInt64(&blobsScanned)),
		BlobsSkipped: int(atomic.LoadInt64(&blobsSkipped)),
		BlobsDeduped: int(atomic.LoadInt64(&blobsDeduped)),
		TotalBytes:   atomic.LoadInt64(&totalBytes),
		MatchCount:   int(atomic.LoadInt64(&matchCount)),
		NewFindings:  int(atomic.LoadInt64(&newFindings)),
	}, nil
}

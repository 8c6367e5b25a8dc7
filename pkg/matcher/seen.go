package matcher

import (
	"sync"

	"github.com/praetorian-inc/scanforge/pkg/types"
)

// seenBlobShardCount controls contention on the seen-blob map. Sharding by a
// byte of the blob id spreads concurrent workers across independent mutexes
// (§4.1, §5 "interior synchronization may be per-shard to avoid contention").
const seenBlobShardCount = 64

type seenBlobShard struct {
	mu sync.RWMutex
	m  map[types.BlobID]bool
}

// SeenBlobMap is the within-run blob dedup mechanism of §4.1: a concurrent
// BlobId -> had_matches map. Insertion is racy across workers — two workers
// scanning the same blob concurrently may both run to completion, but only
// the first InsertIfAbsent call wins; the loser learns the outcome from its
// return value instead of recording its own.
type SeenBlobMap struct {
	shards [seenBlobShardCount]seenBlobShard
}

// NewSeenBlobMap creates an empty SeenBlobMap.
func NewSeenBlobMap() *SeenBlobMap {
	sbm := &SeenBlobMap{}
	for i := range sbm.shards {
		sbm.shards[i].m = make(map[types.BlobID]bool)
	}
	return sbm
}

func (s *SeenBlobMap) shardFor(id types.BlobID) *seenBlobShard {
	return &s.shards[id[0]%seenBlobShardCount]
}

// Get returns the recorded had_matches outcome for id, if this map has seen
// it before.
func (s *SeenBlobMap) Get(id types.BlobID) (hadMatches bool, ok bool) {
	shard := s.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	hadMatches, ok = shard.m[id]
	return hadMatches, ok
}

// InsertIfAbsent atomically records hadMatches for id if no entry exists yet.
// present is true if another call (by this or another goroutine) already
// recorded an outcome for id, in which case prior is that recorded outcome
// and hadMatches was NOT written.
func (s *SeenBlobMap) InsertIfAbsent(id types.BlobID, hadMatches bool) (prior bool, present bool) {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if v, ok := shard.m[id]; ok {
		return v, true
	}
	shard.m[id] = hadMatches
	return false, false
}

// Len returns the number of distinct blobs recorded so far.
func (s *SeenBlobMap) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		n += len(s.shards[i].m)
		s.shards[i].mu.RUnlock()
	}
	return n
}

// ScanOutcome is the variant tag of a ScanResult (§4.4's ScanResult enum).
type ScanOutcome int

const (
	// NewBlob means this call is the first to observe the blob in this run;
	// Matches carries whatever the matcher found (possibly empty).
	NewBlob ScanOutcome = iota
	// SeenSansMatches means the blob was already recorded by an earlier call
	// in this run, and that earlier call found no matches.
	SeenSansMatches
	// SeenWithMatches means the blob was already recorded by an earlier call
	// in this run, and that earlier call found at least one match.
	SeenWithMatches
)

// ScanResult is scan_blob's return value (§4.4): either the blob was already
// seen this run (Seen* — Matches is always nil), or this call is the first
// to see it (NewBlob — Matches holds the matcher's output).
type ScanResult struct {
	Outcome ScanOutcome
	Matches []*types.Match
}

// ScanBlob implements §4.4's scan_blob pipeline: consult the seen-blob map
// first; on a miss, run the matcher and atomically record the outcome so any
// worker racing on the same blob learns it instead of re-scanning.
func ScanBlob(m Matcher, seen *SeenBlobMap, content []byte, blobID types.BlobID) (ScanResult, error) {
	if hadMatches, ok := seen.Get(blobID); ok {
		if hadMatches {
			return ScanResult{Outcome: SeenWithMatches}, nil
		}
		return ScanResult{Outcome: SeenSansMatches}, nil
	}

	matches, err := m.MatchWithBlobID(content, blobID)
	if err != nil {
		// Pre-filter I/O errors are fatal to the scan of this blob (§4.4
		// Failure modes): record no matches and report New([]) upstream.
		seen.InsertIfAbsent(blobID, false)
		return ScanResult{Outcome: NewBlob}, err
	}

	hadMatches := len(matches) > 0
	if prior, present := seen.InsertIfAbsent(blobID, hadMatches); present {
		// Lost the race: another worker recorded this blob between our Get
		// miss and this insert. Its outcome wins; our matches are discarded.
		if prior {
			return ScanResult{Outcome: SeenWithMatches}, nil
		}
		return ScanResult{Outcome: SeenSansMatches}, nil
	}

	return ScanResult{Outcome: NewBlob, Matches: matches}, nil
}

// Package search provides Reciprocal Rank Fusion (RRF) for combining
// independently ranked candidate lists into one ranking.
package search

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains (used by Azure AI Search, OpenSearch, etc.).
const DefaultRRFConstant = 60

// FusedResult represents a single result after RRF fusion.
type FusedResult struct {
	ID          string  // candidate identifier (e.g. a conversation id)
	Score       float64 // combined RRF score, raw — never rescaled
	RankA       int     // position in list A (1-indexed, 0 if absent)
	RankB       int     // position in list B (1-indexed, 0 if absent)
	InBothLists bool    // candidate appeared in both lists
}

// RRFFusion combines two ranked candidate lists using Reciprocal Rank
// Fusion.
//
// Algorithm: RRF_score(d) = Σ weight_i / (k + rank_i)
//
// Where:
//   - k = smoothing constant (default: 60)
//   - rank_i = position in ranked list i (0-indexed)
//   - weight_i = weight for source i
type RRFFusion struct {
	K int // RRF smoothing constant (default: 60)
}

// NewRRFFusion creates a new RRF fusion instance with default k=60.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// NewRRFFusionWithK creates a new RRF fusion with custom k value.
// If k <= 0, defaults to 60.
func NewRRFFusionWithK(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines two ranked candidate ID lists using Reciprocal Rank Fusion.
//
// Candidates appearing in only one list use missing_rank = max(len(a), len(b))
// for the missing source's contribution.
//
// Results are sorted by: Score (desc) → InBothLists (true first) → ID (asc).
// Unlike a conventional RRF implementation, scores are never rescaled into
// [0,1] — callers needing a normalized score must do so themselves.
func (f *RRFFusion) Fuse(a, b []string, weightA, weightB float64) []FusedResult {
	if len(a) == 0 && len(b) == 0 {
		return []FusedResult{}
	}

	scores := make(map[string]*FusedResult, len(a)+len(b))

	for rank, id := range a {
		r := f.getOrCreate(scores, id)
		r.RankA = rank + 1
		r.Score += weightA / float64(f.K+rank)
	}

	for rank, id := range b {
		r := f.getOrCreate(scores, id)
		r.RankB = rank + 1
		r.Score += weightB / float64(f.K+rank)
		if r.RankA > 0 {
			r.InBothLists = true
		}
	}

	missingRank := f.missingRank(len(a), len(b))
	for _, r := range scores {
		if r.RankA == 0 && r.RankB > 0 {
			r.Score += weightA / float64(f.K+missingRank)
		}
		if r.RankB == 0 && r.RankA > 0 {
			r.Score += weightB / float64(f.K+missingRank)
		}
	}

	return f.toSortedSlice(scores)
}

func (f *RRFFusion) getOrCreate(m map[string]*FusedResult, id string) *FusedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &FusedResult{ID: id}
	m[id] = r
	return r
}

// missingRank returns the rank assigned to a source's contribution for a
// candidate absent from that source's list.
func (f *RRFFusion) missingRank(lenA, lenB int) int {
	if lenA > lenB {
		return lenA
	}
	return lenB
}

func (f *RRFFusion) toSortedSlice(m map[string]*FusedResult) []FusedResult {
	results := make([]FusedResult, 0, len(m))
	for _, r := range m {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})

	return results
}

// compare implements deterministic comparison for sorting.
// Returns true if a should rank before b.
//
// Priority:
//  1. Higher score
//  2. In both lists (true before false)
//  3. Lexicographically smaller ID (deterministic)
func (f *RRFFusion) compare(a, b FusedResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	return a.ID < b.ID
}

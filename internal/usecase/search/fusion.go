package search

import (
	"sort"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// fuse merges the two prepared lists into one ordering under the given strategy.
// Every id present in either list appears exactly once. poolDepth sets the RRF sentinel
// rank for ids absent from one side.
func fuse(strategy fusion.Strategy, lexical, vector []result.Candidate, poolDepth int) []result.Fused {
	fused := merge(lexical, vector)
	switch s := strategy.(type) {
	case fusion.ReciprocalRank:
		fuseRRF(fused, s.K, poolDepth)
	case fusion.WeightedLinear:
		fuseWeighted(fused, s)
	}
	orderByRelevance(fused)
	return fused
}

// merge builds the union of both lists with 1-based ranks. Missing side scores stay 0.
func merge(lexical, vector []result.Candidate) []result.Fused {
	out := make([]result.Fused, 0, len(lexical)+len(vector))
	pos := make(map[string]int, len(lexical)+len(vector))

	for i, c := range lexical {
		pos[c.ID] = len(out)
		out = append(out, result.Fused{ID: c.ID, LexicalScore: c.Score, LexicalRank: i + 1})
	}
	for i, c := range vector {
		if j, ok := pos[c.ID]; ok {
			out[j].VectorScore = c.Score
			out[j].VectorRank = i + 1
			continue
		}
		pos[c.ID] = len(out)
		out = append(out, result.Fused{ID: c.ID, VectorScore: c.Score, VectorRank: i + 1})
	}
	return out
}

// orderByRelevance sorts by combined score desc, then id asc.
func orderByRelevance(fused []result.Fused) {
	sort.Slice(fused, func(i, j int) bool {
		return relevanceLess(&fused[i], &fused[j])
	})
}

func relevanceLess(a, b *result.Fused) bool {
	if a.CombinedScore != b.CombinedScore {
		return a.CombinedScore > b.CombinedScore
	}
	return a.ID < b.ID
}

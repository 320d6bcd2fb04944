package search

import (
	"math"
	"sort"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/score"
)

// prepare drops duplicate ids (first occurrence wins), orders by score desc then id asc,
// and truncates to limit. Ranks used by fusion are positions in this list.
func prepare(list []result.Candidate, limit int) []result.Candidate {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]result.Candidate, 0, len(list))
	for _, c := range list {
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		if math.IsNaN(c.Score) {
			c.Score = 0
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// clampVector bounds similarities to [0,1].
func clampVector(list []result.Candidate) {
	for i := range list {
		list[i].Score = score.Clamp01(list[i].Score)
	}
}

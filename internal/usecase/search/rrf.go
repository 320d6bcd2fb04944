package search

import "github.com/kailas-cloud/vecfuse/internal/domain/search/result"

// fuseRRF scores candidates via Reciprocal Rank Fusion (Cormack et al. 2009).
// score(d) = 1/(k + lexRank(d)) + 1/(k + vecRank(d)), ranks 1-based.
// A candidate missing from one list takes rank poolDepth+1 there.
func fuseRRF(fused []result.Fused, k, poolDepth int) {
	sentinel := poolDepth + 1
	for i := range fused {
		lr, vr := fused[i].LexicalRank, fused[i].VectorRank
		if lr == 0 {
			lr = sentinel
		}
		if vr == 0 {
			vr = sentinel
		}
		fused[i].CombinedScore = 1.0/float64(k+lr) + 1.0/float64(k+vr)
	}
}

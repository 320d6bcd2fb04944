package search

import (
	"github.com/kailas-cloud/vecfuse/internal/domain/search/fusion"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

// fuseWeighted scores candidates as lex*w.Lexical + vec*w.Vector.
func fuseWeighted(fused []result.Fused, w fusion.WeightedLinear) {
	for i := range fused {
		fused[i].CombinedScore = fused[i].LexicalScore*w.Lexical + fused[i].VectorScore*w.Vector
	}
}

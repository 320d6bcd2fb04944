package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/filter"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/sort"
)

func propertyService(t *testing.T) *Service {
	t.Helper()
	products := catalogOf(60)
	lex := &fakeLexical{list: rankedCandidates(products, 2)}
	vec := &fakeVector{list: rankedCandidates(products[10:], 3)}
	return New(lex, vec, newRecords(products...))
}

func TestProperty_PaginationPartition(t *testing.T) {
	svc := propertyService(t)

	for _, opt := range []sort.Option{sort.Relevance, sort.PriceAsc, sort.PriceDesc, sort.RatingDesc, sort.Newest} {
		t.Run(string(opt), func(t *testing.T) {
			full, err := svc.Search(context.Background(), makeRequest(t, request.Params{
				Query: "q", Embedding: []float32{1}, Sort: opt, PageSize: 100,
			}))
			require.NoError(t, err)

			var paged []string
			for page := 0; ; page++ {
				resp, err := svc.Search(context.Background(), makeRequest(t, request.Params{
					Query: "q", Embedding: []float32{1}, Sort: opt, Page: page, PageSize: 7,
				}))
				require.NoError(t, err)
				require.Equal(t, full.Total, resp.Total)
				if len(resp.Hits) == 0 {
					break
				}
				paged = append(paged, hitIDs(resp)...)
			}

			assert.Equal(t, hitIDs(full), paged)
			seen := map[string]bool{}
			for _, id := range paged {
				require.False(t, seen[id], "id %s served twice", id)
				seen[id] = true
			}
		})
	}
}

func TestProperty_MonotonicRelevance(t *testing.T) {
	svc := propertyService(t)

	resp, err := svc.Search(context.Background(), makeRequest(t, request.Params{
		Query: "q", Embedding: []float32{1}, PageSize: 100,
	}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Hits)

	for i := 1; i < len(resp.Hits); i++ {
		assert.GreaterOrEqual(t, resp.Hits[i-1].CombinedScore, resp.Hits[i].CombinedScore)
	}
}

func TestProperty_NarrowingNeverIncreasesFacets(t *testing.T) {
	svc := propertyService(t)
	wide, err := filter.New(nil, floatPtr(0), floatPtr(400), nil, false)
	require.NoError(t, err)
	narrow, err := filter.New([]string{"shoes", "bags"}, floatPtr(50), floatPtr(300), floatPtr(2), true)
	require.NoError(t, err)

	w, err := svc.Search(context.Background(), makeRequest(t, request.Params{Query: "q", Embedding: []float32{1}, Filters: wide}))
	require.NoError(t, err)
	n, err := svc.Search(context.Background(), makeRequest(t, request.Params{Query: "q", Embedding: []float32{1}, Filters: narrow}))
	require.NoError(t, err)

	assert.LessOrEqual(t, n.Total, w.Total)
	wideCounts := map[string]int{}
	for _, c := range w.Facets.Categories {
		wideCounts[c.Value] = c.Count
	}
	for _, c := range n.Facets.Categories {
		assert.LessOrEqual(t, c.Count, wideCounts[c.Value], "category %s", c.Value)
	}
	for _, resp := range []result.Response{w, n} {
		sum := 0
		for _, c := range resp.Facets.Stock {
			sum += c.Count
		}
		assert.Equal(t, resp.Total, sum)
	}
}

func TestProperty_Idempotent(t *testing.T) {
	svc := propertyService(t)
	params := request.Params{Query: "q", Embedding: []float32{1}, Strategy: "rrf", Page: 1, PageSize: 9}

	first, err := svc.Search(context.Background(), makeRequest(t, params))
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Search(context.Background(), makeRequest(t, params))
		require.NoError(t, err)
		assert.Equal(t, first, again)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, firstJSON, againJSON)
	}
}

package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/vecfuse/internal/domain/search/result"
)

func TestMinMax(t *testing.T) {
	list := []result.Candidate{{ID: "a", Score: 12}, {ID: "b", Score: 7}, {ID: "c", Score: 2}}

	Normalizer{Method: MinMax}.Apply(list)

	assert.InDelta(t, 1.0, list[0].Score, 1e-9)
	assert.InDelta(t, 0.5, list[1].Score, 1e-9)
	assert.InDelta(t, 0.0, list[2].Score, 1e-9)
}

func TestMinMax_SingleDistinctScore(t *testing.T) {
	list := []result.Candidate{{ID: "a", Score: 3.3}, {ID: "b", Score: 3.3}}

	Normalizer{Method: MinMax}.Apply(list)

	assert.Equal(t, 1.0, list[0].Score)
	assert.Equal(t, 1.0, list[1].Score)
}

func TestMinMax_Empty(t *testing.T) {
	Normalizer{Method: MinMax}.Apply(nil)
}

func TestDivisor(t *testing.T) {
	list := []result.Candidate{{ID: "a", Score: 30}, {ID: "b", Score: 5}}

	Normalizer{Method: Divisor, Divisor: 10}.Apply(list)

	assert.Equal(t, 1.0, list[0].Score)
	assert.InDelta(t, 0.5, list[1].Score, 1e-9)
}

func TestNone(t *testing.T) {
	list := []result.Candidate{{ID: "a", Score: 30}}

	Normalizer{Method: None}.Apply(list)

	assert.Equal(t, 30.0, list[0].Score)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Normalizer{Method: MinMax}.Validate())
	assert.NoError(t, Normalizer{Method: None}.Validate())
	assert.NoError(t, Normalizer{Method: Divisor, Divisor: 25}.Validate())
	assert.Error(t, Normalizer{Method: Divisor}.Validate())
	assert.Error(t, Normalizer{Method: "zscore"}.Validate())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.4, Clamp01(0.4))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

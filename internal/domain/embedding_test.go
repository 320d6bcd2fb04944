package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchTexts []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	out := BatchEmbeddingResult{TotalTokens: 7}
	for range texts {
		out.Embeddings = append(out.Embeddings, []float32{1})
	}
	return out, nil
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "query: ")

	res, err := emb.Embed(context.Background(), "running shoes")
	require.NoError(t, err)
	assert.Equal(t, []string{"query: running shoes"}, inner.got)
	assert.Len(t, res.Embedding, 3)
}

func TestInstructionEmbedder_WrapsError(t *testing.T) {
	down := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: down}, "")

	_, err := emb.Embed(context.Background(), "x")
	require.ErrorIs(t, err, down)
}

func TestInstructionEmbedder_BatchUsesNativeCall(t *testing.T) {
	inner := &stubBatchEmbedder{}
	emb := NewInstructionEmbedder(inner, "passage: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"passage: a", "passage: b"}, inner.batchTexts)
	assert.Empty(t, inner.got)
	assert.Equal(t, 7, res.TotalTokens)
}

func TestEmbedBatch_FallsBackPerText(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}, PromptTokens: 2, TotalTokens: 3}}

	res, err := EmbedBatch(context.Background(), inner, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, 3)
	assert.Equal(t, 6, res.PromptTokens)
	assert.Equal(t, 9, res.TotalTokens)
	assert.Equal(t, []string{"a", "b", "c"}, inner.got)
}

func TestEmbedBatch_FallbackError(t *testing.T) {
	_, err := EmbedBatch(context.Background(), &stubEmbedder{err: ErrRateLimited}, []string{"a"})
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestCheckDimensions(t *testing.T) {
	require.NoError(t, CheckDimensions([]float32{1, 2}, 2))
	require.NoError(t, CheckDimensions([]float32{1, 2}, 0))
	require.ErrorIs(t, CheckDimensions([]float32{1}, 2), ErrVectorDimMismatch)
}

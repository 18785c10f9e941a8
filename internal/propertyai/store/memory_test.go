package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
)

// stubEmbedder returns fixed vectors per text and falls back to a default
// for unknown inputs.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = s.fallback
		}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (s *stubEmbedder) Name() string { return "stub" }

func propertyChunk(content, source string) model.Document {
	return model.Document{
		Content: content,
		Metadata: map[string]string{
			model.MetaSource:  source,
			model.MetaDocType: model.DocTypeProperty,
		},
	}
}

func newTestStore() *MemoryStore {
	return NewMemoryStore(&stubEmbedder{
		vectors: map[string][]float32{
			"flat in adyar":    {1, 0, 0},
			"villa in porur":   {0, 1, 0},
			"plot in guindy":   {0, 0, 1},
			"query near adyar": {0.9, 0.1, 0},
		},
		fallback: []float32{0.1, 0.1, 0.1},
	})
}

func TestMemoryStore_QueryOrdering(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.ResetAndIngest(ctx, []model.Document{
		propertyChunk("flat in adyar", "a.csv"),
		propertyChunk("villa in porur", "a.csv"),
		propertyChunk("plot in guindy", "a.csv"),
	})
	require.NoError(t, err)

	matches, err := s.Query(ctx, "query near adyar", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "flat in adyar", matches[0].Document.Content)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score)
	}
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, float32(0))
		assert.LessOrEqual(t, m.Score, float32(1))
	}
}

func TestMemoryStore_KClamp(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	chunks := make([]model.Document, 25)
	for i := range chunks {
		chunks[i] = propertyChunk(fmt.Sprintf("listing %d", i), "a.csv")
	}
	_, err := s.ResetAndIngest(ctx, chunks)
	require.NoError(t, err)

	matches, err := s.Query(ctx, "anything", 50)
	require.NoError(t, err)
	assert.Len(t, matches, MaxTopK)

	matches, err = s.Query(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStore_ResetIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	chunks := []model.Document{
		propertyChunk("flat in adyar", "a.csv"),
		propertyChunk("villa in porur", "b.csv"),
	}

	for i := 0; i < 3; i++ {
		n, err := s.ResetAndIngest(ctx, chunks)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.DocTypes[model.DocTypeProperty])
	assert.Equal(t, 1, stats.Sources["a.csv"])
	assert.Equal(t, 1, stats.Sources["b.csv"])
}

func TestMemoryStore_EmptyIngestFails(t *testing.T) {
	s := newTestStore()
	_, err := s.ResetAndIngest(context.Background(), nil)
	assert.Error(t, err)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, float32(0), ClampScore(-0.5))
	assert.Equal(t, float32(1), ClampScore(1.5))
	assert.Equal(t, float32(0.3), ClampScore(0.3))
}

package biz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/internal/propertyai/store"
)

// hashEmbedder maps text onto a small fixed vector derived from its bytes.
// Identical texts always land on the same point, so a query retrieves the
// chunk it was copied from.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (hashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func (hashEmbedder) Name() string { return "hash" }

func embedText(t string) []float32 {
	v := make([]float32, 8)
	for i, b := range []byte(t) {
		v[i%8] += float32(b)
	}
	return v
}

func newTestService(t *testing.T) *QAService {
	t.Helper()
	vs := store.NewMemoryStore(hashEmbedder{})
	composer := NewComposer(nil)
	cache := NewQueryCache(nil, nil)
	return NewQAService(vs, nil, composer, cache)
}

func writeListingsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	content := "title,location,price,bhk\n" +
		"Sea Breeze Apartment,adyar,7500000,2\n" +
		"Garden View Flat,velachery,9500000,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestServiceIngestAndQuery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, []string{writeListingsCSV(t)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 2, result.Documents)
	assert.Equal(t, 2, result.Chunks)

	answer, err := svc.Query(ctx, "apartments in adyar")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, model.DocTypeProperty, answer.Sources[0].DocType)
	assert.Equal(t, "listings.csv", answer.Sources[0].Source)
}

func TestServiceQueryValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Query(context.Background(), "   ")
	assert.Error(t, err)
}

func TestServiceIngestNoFiles(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ingest(context.Background(), nil)
	assert.Error(t, err)
}

func TestServiceIngestBadFile(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, err := svc.Ingest(context.Background(), []string{path})
	assert.Error(t, err)
}

func TestServiceIngestSkipsFailingFiles(t *testing.T) {
	svc := newTestService(t)
	bad := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o600))

	result, err := svc.Ingest(context.Background(), []string{writeListingsCSV(t), bad})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 2, result.Chunks)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "notes.txt", result.Failed[0].File)
}

func TestServiceQueryDegradesOnStoreError(t *testing.T) {
	broken := &stubStore{err: errors.New("index unavailable")}
	svc := NewQAService(broken, nil, NewComposer(nil), NewQueryCache(nil, nil))

	result, err := svc.Query(context.Background(), "flats in adyar")
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "try again")
	assert.Empty(t, result.Sources)
}

func TestServiceQueryWithSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []string{writeListingsCSV(t)})
	require.NoError(t, err)

	s := svc.Sessions().Create()
	result, err := svc.QueryWithSession(ctx, s.ID, "flats in velachery")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)

	got, err := svc.Sessions().Get(s.ID)
	require.NoError(t, err)
	require.Len(t, got.ChatHistory, 2)
	assert.Equal(t, model.ChatRoleUser, got.ChatHistory[0].Role)
	assert.Equal(t, "flats in velachery", got.ChatHistory[0].Content)
	assert.Equal(t, result.Answer, got.ChatHistory[1].Content)

	_, err = svc.QueryWithSession(ctx, "missing", "anything")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []string{writeListingsCSV(t)})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	index, ok := stats["index"].(*model.IndexStats)
	require.True(t, ok)
	assert.Equal(t, 2, index.TotalDocuments)

	cacheStats, ok := stats["cache"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, cacheStats["enabled"])

	assert.Contains(t, stats, "runtime")
}

func TestServiceSuggestions(t *testing.T) {
	svc := newTestService(t)
	suggestions := svc.Suggestions()
	assert.NotEmpty(t, suggestions)
	for _, q := range suggestions {
		assert.NotEmpty(t, q)
	}
}

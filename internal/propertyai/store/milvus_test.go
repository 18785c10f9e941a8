package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/pkg/component/milvus"
)

// fakeMilvusClient records calls so tests can assert which component
// operations a store method reached.
type fakeMilvusClient struct {
	hasCollection bool
	searchResults []milvus.SearchResult
	searchCalled  bool
}

func (f *fakeMilvusClient) HasCollection(context.Context, string) (bool, error) {
	return f.hasCollection, nil
}

func (f *fakeMilvusClient) CreateCollection(context.Context, *milvus.CollectionSchema) error {
	return nil
}

func (f *fakeMilvusClient) DropCollection(context.Context, string) error { return nil }

func (f *fakeMilvusClient) Insert(context.Context, string, *milvus.InsertData) ([]int64, error) {
	return nil, nil
}

func (f *fakeMilvusClient) Search(context.Context, string, []float32, int, []string) ([]milvus.SearchResult, error) {
	f.searchCalled = true
	return f.searchResults, nil
}

func (f *fakeMilvusClient) Scan(context.Context, string, string, []string) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeMilvusClient) Close(context.Context) error { return nil }

func TestMilvusQueryBeforeFirstIngest(t *testing.T) {
	client := &fakeMilvusClient{hasCollection: false}
	s := NewMilvusStore(client, &stubEmbedder{fallback: []float32{1, 0, 0}}, "property_chunks")

	matches, err := s.Query(context.Background(), "flats in adyar", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.False(t, client.searchCalled)
}

func TestMilvusQuerySearchesExistingCollection(t *testing.T) {
	client := &fakeMilvusClient{
		hasCollection: true,
		searchResults: []milvus.SearchResult{
			{
				Score: 0.8,
				Metadata: map[string]any{
					"content":  "title: Palm Grove | price: 7500000",
					"metadata": `{"doc_type":"property","source":"listings.csv"}`,
				},
			},
		},
	}
	s := NewMilvusStore(client, &stubEmbedder{fallback: []float32{1, 0, 0}}, "property_chunks")

	matches, err := s.Query(context.Background(), "flats in adyar", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, client.searchCalled)
	assert.Equal(t, "title: Palm Grove | price: 7500000", matches[0].Document.Content)
	assert.Equal(t, "listings.csv", matches[0].Document.Metadata["source"])
}

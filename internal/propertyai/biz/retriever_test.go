package biz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
)

type stubStore struct {
	pool    []model.RetrievedMatch
	err     error
	gotK    int
	gotText string
}

func (s *stubStore) ResetAndIngest(ctx context.Context, chunks []model.Document) (int, error) {
	return len(chunks), nil
}

func (s *stubStore) Query(ctx context.Context, text string, k int) ([]model.RetrievedMatch, error) {
	s.gotText = text
	s.gotK = k
	return s.pool, s.err
}

func (s *stubStore) Stats(ctx context.Context) (*model.IndexStats, error) {
	return &model.IndexStats{}, nil
}

func (s *stubStore) Close(ctx context.Context) error { return nil }

func listing(location, price, bhk string, score float32) model.RetrievedMatch {
	return model.RetrievedMatch{
		Document: model.Document{
			Content: fmt.Sprintf("location: %s | price: %s | bhk: %s", location, price, bhk),
			Metadata: map[string]string{
				model.MetaDocType: model.DocTypeProperty,
				"location":        location,
				"price":           price,
				"bhk":             bhk,
			},
		},
		Score: score,
	}
}

func guideline(content string, score float32) model.RetrievedMatch {
	return model.RetrievedMatch{
		Document: model.Document{
			Content:  content,
			Metadata: map[string]string{model.MetaDocType: model.DocTypeGuidelines},
		},
		Score: score,
	}
}

func TestRetrieveAppliesPropertyFilter(t *testing.T) {
	st := &stubStore{pool: []model.RetrievedMatch{
		listing("adyar", "7500000", "2", 0.9),
		listing("velachery", "9500000", "3", 0.8),
		guideline("verify the sale deed", 0.7),
	}}
	r := NewRetriever(st)

	matches, filter, err := r.Retrieve(context.Background(), "2bhk under 80 lakhs in adyar")
	require.NoError(t, err)
	assert.False(t, filter.Empty())
	assert.Equal(t, retrievalPoolSize, st.gotK)

	require.Len(t, matches, 2)
	assert.Equal(t, "adyar", matches[0].Document.Metadata["location"])
	assert.Equal(t, model.DocTypeGuidelines, matches[1].Document.DocType())
}

func TestRetrieveFallsBackWhenFilterEmptiesPool(t *testing.T) {
	pool := []model.RetrievedMatch{
		listing("velachery", "9500000", "3", 0.9),
		listing("anna nagar", "12000000", "3", 0.8),
	}
	st := &stubStore{pool: pool}
	r := NewRetriever(st)

	matches, filter, err := r.Retrieve(context.Background(), "1bhk in adyar under 30 lakhs")
	require.NoError(t, err)
	assert.False(t, filter.Empty())
	assert.Equal(t, pool, matches)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	var pool []model.RetrievedMatch
	for i := 0; i < retrievalPoolSize; i++ {
		pool = append(pool, listing("adyar", "7500000", "2", float32(10-i)/10))
	}
	st := &stubStore{pool: pool}
	r := NewRetriever(st)

	matches, _, err := r.Retrieve(context.Background(), "flats in chennai")
	require.NoError(t, err)
	assert.Len(t, matches, DefaultTopK)
	assert.Equal(t, pool[0], matches[0])
}

func TestRetrieveEmptyPool(t *testing.T) {
	r := NewRetriever(&stubStore{})

	matches, _, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrievePropagatesStoreError(t *testing.T) {
	r := NewRetriever(&stubStore{err: errors.New("index unavailable")})

	_, _, err := r.Retrieve(context.Background(), "anything")
	assert.Error(t, err)
}

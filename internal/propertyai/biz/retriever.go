package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/internal/propertyai/metrics"
	"github.com/kart-io/propertyai/internal/propertyai/store"
)

const (
	// DefaultTopK is how many matches feed the composer.
	DefaultTopK = 6

	// retrievalPoolSize is how many candidates are pulled before filtering.
	retrievalPoolSize = 10
)

// Retriever runs similarity search and applies extracted filters to the
// candidate pool.
type Retriever struct {
	store     store.VectorStore
	extractor *FilterExtractor
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(vs store.VectorStore) *Retriever {
	return &Retriever{
		store:     vs,
		extractor: NewFilterExtractor(),
	}
}

// Retrieve returns up to DefaultTopK matches for the query. Property
// documents must satisfy the extracted filter; guideline documents always
// pass. When filtering leaves nothing, the unfiltered ranking is used so the
// composer still has grounding material.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.RetrievedMatch, model.QueryFilter, error) {
	filter := r.extractor.Extract(query)

	startedAt := time.Now()
	pool, err := r.store.Query(ctx, query, retrievalPoolSize)
	metrics.Get().RecordRetrieval(time.Since(startedAt), err)
	if err != nil {
		return nil, filter, err
	}
	if len(pool) == 0 {
		return nil, filter, nil
	}

	matches := applyFilter(pool, filter)
	if len(matches) == 0 && !filter.Empty() {
		logger.Infow("filter excluded all candidates, falling back to unfiltered ranking",
			"query", query)
		matches = pool
	}

	if len(matches) > DefaultTopK {
		matches = matches[:DefaultTopK]
	}
	return matches, filter, nil
}

// applyFilter keeps guideline matches and property matches that satisfy the
// filter, preserving the ranking order.
func applyFilter(pool []model.RetrievedMatch, filter model.QueryFilter) []model.RetrievedMatch {
	if filter.Empty() {
		return pool
	}

	out := make([]model.RetrievedMatch, 0, len(pool))
	for _, m := range pool {
		if !m.Document.IsProperty() || MatchesProperty(m.Document, filter) {
			out = append(out, m)
		}
	}
	return out
}

// Package store provides the vector index backing retrieval. Two
// implementations exist: a Milvus-backed store for deployments and an
// in-process store for tests and single-node setups.
package store

import (
	"context"

	"github.com/kart-io/propertyai/internal/model"
)

const (
	// MaxTopK caps how many matches a single query may request.
	MaxTopK = 10

	// IngestBatchSize is how many chunks are embedded and inserted per batch.
	IngestBatchSize = 100
)

// VectorStore is the retrieval index. ResetAndIngest replaces the entire
// index contents; repeated ingestion of the same corpus is idempotent.
type VectorStore interface {
	// ResetAndIngest drops existing contents and indexes the given chunks,
	// returning the number indexed.
	ResetAndIngest(ctx context.Context, chunks []model.Document) (int, error)

	// Query embeds text and returns up to k matches ordered by descending
	// similarity. k is clamped to MaxTopK; non-positive k yields no matches.
	Query(ctx context.Context, text string, k int) ([]model.RetrievedMatch, error)

	// Stats reports index size and per-type/per-source document counts.
	Stats(ctx context.Context) (*model.IndexStats, error)

	// Close releases backing resources.
	Close(ctx context.Context) error
}

// ClampTopK bounds k to [0, MaxTopK].
func ClampTopK(k int) int {
	if k < 0 {
		return 0
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// ClampScore maps a raw cosine similarity onto [0, 1]. Negative
// similarities collapse to zero.
func ClampScore(s float32) float32 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
